package session

import (
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/suite"
	"github.com/uber-go/tally"

	"github.com/coxswain-io/coxswain/common/async"
	"github.com/coxswain-io/coxswain/common/eventbus"
	"github.com/coxswain-io/coxswain/mesos"
	"github.com/coxswain-io/coxswain/mesos/mocks"
)

const _waitTimeout = 5 * time.Second

type ManagerTestSuite struct {
	suite.Suite

	ctrl    *gomock.Controller
	driver  *mocks.MockDriver
	bus     *eventbus.Bus
	pool    *async.Pool
	manager *Manager
}

func (s *ManagerTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.driver = mocks.NewMockDriver(s.ctrl)
	s.bus = eventbus.NewBus(tally.NoopScope)
	s.pool = async.NewPool(async.PoolOptions{MaxWorkers: 2})
	s.driver.EXPECT().Events().Return(s.bus).AnyTimes()
	s.driver.EXPECT().Executor().Return(s.pool).AnyTimes()
	s.manager = NewManager(s.driver, Config{
		ConnectTimeout: _waitTimeout,
		LaunchTimeout:  _waitTimeout,
		KillTimeout:    _waitTimeout,
	}, tally.NoopScope)
}

func (s *ManagerTestSuite) TearDownTest() {
	s.bus.Close()
	s.pool.Stop()
	s.ctrl.Finish()
}

func (s *ManagerTestSuite) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), _waitTimeout)
}

func (s *ManagerTestSuite) waitFor(cond func() bool) {
	deadline := time.Now().Add(_waitTimeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	s.FailNow("condition not reached in time")
}

// connect drives the session to Connected.
func (s *ManagerTestSuite) connect() {
	s.driver.EXPECT().Start().Return(mesos.DriverRunning)

	future, err := s.manager.Connect()
	s.NoError(err)

	s.bus.Publish(&mesos.RegisteredEvent{
		FrameworkID: "framework-1",
		Master:      mesos.MasterInfo{ID: "master-1", Host: "master.local", Port: 5050},
	})

	ctx, cancel := s.ctx()
	defer cancel()
	value, err := future.Get(ctx)
	s.NoError(err)
	s.Equal(mesos.FrameworkID("framework-1"), value.(Registration).FrameworkID)
	s.Equal(Connected, s.manager.State())
}

func (s *ManagerTestSuite) numWatches() int {
	s.manager.mu.Lock()
	defer s.manager.mu.Unlock()
	return len(s.manager.watches)
}

func (s *ManagerTestSuite) numPending() int {
	s.manager.mu.Lock()
	defer s.manager.mu.Unlock()
	return len(s.manager.pending)
}

func (s *ManagerTestSuite) TestConnectSuccess() {
	s.connect()
}

func (s *ManagerTestSuite) TestConnectRequiresDisconnected() {
	s.connect()

	_, err := s.manager.Connect()
	s.Equal(ErrNotDisconnected, err)
}

func (s *ManagerTestSuite) TestConnectFailsOnMasterError() {
	s.driver.EXPECT().Start().Return(mesos.DriverRunning)

	future, err := s.manager.Connect()
	s.NoError(err)

	s.bus.Publish(&mesos.ErrorEvent{Message: "framework has been removed"})

	ctx, cancel := s.ctx()
	defer cancel()
	_, err = future.Get(ctx)
	s.Error(err)
	masterErr, ok := err.(*MasterError)
	s.True(ok)
	s.Equal("framework has been removed", masterErr.Message)
	s.Equal(Disconnected, s.manager.State())
}

func (s *ManagerTestSuite) TestConnectFailsOnDisconnect() {
	s.driver.EXPECT().Start().Return(mesos.DriverRunning)

	future, err := s.manager.Connect()
	s.NoError(err)

	s.bus.Publish(&mesos.DisconnectedEvent{})

	ctx, cancel := s.ctx()
	defer cancel()
	_, err = future.Get(ctx)
	s.Equal(ErrConnectionLost, err)
	s.Equal(Disconnected, s.manager.State())
}

func (s *ManagerTestSuite) TestConnectTimesOut() {
	manager := NewManager(s.driver, Config{
		ConnectTimeout: 20 * time.Millisecond,
	}, tally.NoopScope)
	s.driver.EXPECT().Start().Return(mesos.DriverRunning)

	future, err := manager.Connect()
	s.NoError(err)

	ctx, cancel := s.ctx()
	defer cancel()
	_, err = future.Get(ctx)
	s.Equal(ErrConnectTimeout, err)
	s.Equal(Disconnected, manager.State())

	// A registration arriving after the timeout causes no further
	// resolution.
	s.bus.Publish(&mesos.RegisteredEvent{FrameworkID: "late"})
	time.Sleep(20 * time.Millisecond)
	s.Equal(ErrConnectTimeout, future.Err())
	s.Equal(Disconnected, manager.State())
}

func (s *ManagerTestSuite) TestConnectFailsWhenDriverNotRunning() {
	s.driver.EXPECT().Start().Return(mesos.DriverNotStarted)

	future, err := s.manager.Connect()
	s.NoError(err)

	ctx, cancel := s.ctx()
	defer cancel()
	_, err = future.Get(ctx)
	s.Equal(ErrDriverNotRunning, err)
	s.Equal(Disconnected, s.manager.State())
}

func (s *ManagerTestSuite) TestLaunchRequiresConnected() {
	_, err := s.manager.Launch(nil, nil)
	s.Equal(ErrNotConnected, err)
}

func (s *ManagerTestSuite) launchOneTask() (mesos.TaskInfo, *async.Future) {
	task := mesos.NewTaskInfo(mesos.TaskDescriptor{
		Name:      "sleeper",
		Resources: []mesos.Resource{mesos.NewScalarResource("cpus", 1)},
		Command:   &mesos.CommandSpec{Value: "sleep 100"},
	}, &mesos.Offer{ID: "offer-1", AgentID: "agent-1"})

	s.driver.EXPECT().
		LaunchTasks([]mesos.OfferID{"offer-1"}, []mesos.TaskInfo{task}).
		Return(nil)

	futures, err := s.manager.Launch(
		[]mesos.OfferID{"offer-1"}, []mesos.TaskInfo{task})
	s.NoError(err)
	s.Len(futures, 1)
	return task, futures[0]
}

func (s *ManagerTestSuite) TestLaunchResolvesOnRunning() {
	s.connect()
	task, future := s.launchOneTask()

	// Staging and starting keep the watch pending.
	s.bus.Publish(&mesos.TaskUpdateEvent{TaskID: task.TaskID, State: mesos.TaskStaging})
	s.bus.Publish(&mesos.TaskUpdateEvent{TaskID: task.TaskID, State: mesos.TaskStarting})
	s.False(future.IsDone())

	s.bus.Publish(&mesos.TaskUpdateEvent{TaskID: task.TaskID, State: mesos.TaskRunning})

	ctx, cancel := s.ctx()
	defer cancel()
	value, err := future.Get(ctx)
	s.NoError(err)
	s.Equal(task, value.(mesos.TaskInfo))

	// The long-lived terminal watch replaces the launch watch.
	s.waitFor(func() bool { return s.numWatches() == 1 })
}

func (s *ManagerTestSuite) TestLaunchIgnoresDuplicateRunning() {
	s.connect()
	task, future := s.launchOneTask()

	s.bus.Publish(&mesos.TaskUpdateEvent{TaskID: task.TaskID, State: mesos.TaskRunning})
	s.bus.Publish(&mesos.TaskUpdateEvent{TaskID: task.TaskID, State: mesos.TaskRunning})

	ctx, cancel := s.ctx()
	defer cancel()
	_, err := future.Get(ctx)
	s.NoError(err)
	s.waitFor(func() bool { return s.numWatches() == 1 })
}

func (s *ManagerTestSuite) TestLaunchFailsOnTerminalState() {
	s.connect()
	task, future := s.launchOneTask()

	s.bus.Publish(&mesos.TaskUpdateEvent{
		TaskID:  task.TaskID,
		State:   mesos.TaskFailed,
		Message: "container exited 1",
	})

	ctx, cancel := s.ctx()
	defer cancel()
	_, err := future.Get(ctx)
	failure, ok := err.(*TaskFailedError)
	s.True(ok)
	s.Equal(mesos.TaskFailed, failure.State)
	s.Equal("container exited 1", failure.Message)
	s.Equal(0, s.numWatches())
}

func (s *ManagerTestSuite) TestLaunchTimesOut() {
	manager := NewManager(s.driver, Config{
		ConnectTimeout: _waitTimeout,
		LaunchTimeout:  20 * time.Millisecond,
	}, tally.NoopScope)
	s.driver.EXPECT().Start().Return(mesos.DriverRunning)
	future, err := manager.Connect()
	s.NoError(err)
	s.bus.Publish(&mesos.RegisteredEvent{FrameworkID: "framework-1"})
	ctx, cancel := s.ctx()
	defer cancel()
	_, err = future.Get(ctx)
	s.NoError(err)

	task := mesos.NewTaskInfo(mesos.TaskDescriptor{Name: "slow"}, &mesos.Offer{
		ID: "offer-1", AgentID: "agent-1"})
	s.driver.EXPECT().LaunchTasks(gomock.Any(), gomock.Any()).Return(nil)
	futures, err := manager.Launch([]mesos.OfferID{"offer-1"}, []mesos.TaskInfo{task})
	s.NoError(err)

	launchCtx, launchCancel := s.ctx()
	defer launchCancel()
	_, err = futures[0].Get(launchCtx)
	s.Equal(ErrLaunchTimeout, err)
}

func (s *ManagerTestSuite) TestLaunchDriverRejection() {
	s.connect()

	task := mesos.NewTaskInfo(mesos.TaskDescriptor{Name: "rejected"}, &mesos.Offer{
		ID: "offer-1", AgentID: "agent-1"})
	s.driver.EXPECT().
		LaunchTasks(gomock.Any(), gomock.Any()).
		Return(errors.New("master unreachable"))

	futures, err := s.manager.Launch(
		[]mesos.OfferID{"offer-1"}, []mesos.TaskInfo{task})
	s.Error(err)
	s.Nil(futures)

	// The armed launch watch was torn down; a later running update for
	// the task resolves nothing.
	s.bus.Publish(&mesos.TaskUpdateEvent{TaskID: task.TaskID, State: mesos.TaskRunning})
	time.Sleep(20 * time.Millisecond)
	s.Equal(0, s.numWatches())
}

func (s *ManagerTestSuite) TestTerminalWatchRemovedOnTerminalState() {
	s.connect()
	task, future := s.launchOneTask()

	s.bus.Publish(&mesos.TaskUpdateEvent{TaskID: task.TaskID, State: mesos.TaskRunning})
	ctx, cancel := s.ctx()
	defer cancel()
	_, err := future.Get(ctx)
	s.NoError(err)
	s.waitFor(func() bool { return s.numWatches() == 1 })

	s.bus.Publish(&mesos.TaskUpdateEvent{TaskID: task.TaskID, State: mesos.TaskFinished})
	s.waitFor(func() bool { return s.numWatches() == 0 })
}

func (s *ManagerTestSuite) TestKillRequiresConnected() {
	_, err := s.manager.Kill("task-1")
	s.Equal(ErrNotConnected, err)
}

func (s *ManagerTestSuite) kill(taskID mesos.TaskID) *async.Future {
	s.driver.EXPECT().KillTask(taskID).Return(nil)
	future, err := s.manager.Kill(taskID)
	s.NoError(err)
	return future
}

func (s *ManagerTestSuite) TestKillResolvesOnKilled() {
	s.connect()
	future := s.kill("task-1")

	// Non-terminal updates are ignored.
	s.bus.Publish(&mesos.TaskUpdateEvent{TaskID: "task-1", State: mesos.TaskRunning})
	s.False(future.IsDone())

	s.bus.Publish(&mesos.TaskUpdateEvent{TaskID: "task-1", State: mesos.TaskKilled})

	ctx, cancel := s.ctx()
	defer cancel()
	value, err := future.Get(ctx)
	s.NoError(err)
	s.Equal(mesos.TaskID("task-1"), value.(mesos.TaskID))
}

func (s *ManagerTestSuite) TestKillFailsOnLost() {
	s.connect()
	future := s.kill("task-1")

	s.bus.Publish(&mesos.TaskUpdateEvent{TaskID: "task-1", State: mesos.TaskLost})

	ctx, cancel := s.ctx()
	defer cancel()
	_, err := future.Get(ctx)
	failure, ok := err.(*TaskFailedError)
	s.True(ok)
	s.Equal(mesos.TaskLost, failure.State)
}

func (s *ManagerTestSuite) TestKillSucceedsOnOtherTerminalState() {
	s.connect()
	future := s.kill("task-1")

	s.bus.Publish(&mesos.TaskUpdateEvent{TaskID: "task-1", State: mesos.TaskFinished})

	ctx, cancel := s.ctx()
	defer cancel()
	_, err := future.Get(ctx)
	s.NoError(err)
}

func (s *ManagerTestSuite) TestKillTimesOut() {
	manager := NewManager(s.driver, Config{
		ConnectTimeout: _waitTimeout,
		KillTimeout:    20 * time.Millisecond,
	}, tally.NoopScope)
	s.driver.EXPECT().Start().Return(mesos.DriverRunning)
	future, err := manager.Connect()
	s.NoError(err)
	s.bus.Publish(&mesos.RegisteredEvent{FrameworkID: "framework-1"})
	ctx, cancel := s.ctx()
	defer cancel()
	_, err = future.Get(ctx)
	s.NoError(err)

	s.driver.EXPECT().KillTask(mesos.TaskID("task-1")).Return(nil)
	killFuture, err := manager.Kill("task-1")
	s.NoError(err)

	killCtx, killCancel := s.ctx()
	defer killCancel()
	_, err = killFuture.Get(killCtx)
	s.Equal(ErrKillTimeout, err)
}

func (s *ManagerTestSuite) TestDeclineRequiresLiveSession() {
	s.Equal(ErrDisconnected, s.manager.Decline("offer-1"))
}

func (s *ManagerTestSuite) TestDeclineAllowedWhileConnecting() {
	s.driver.EXPECT().Start().Return(mesos.DriverRunning)
	_, err := s.manager.Connect()
	s.NoError(err)
	s.Equal(Connecting, s.manager.State())

	s.driver.EXPECT().DeclineOffer(mesos.OfferID("offer-1")).Return(nil)
	s.NoError(s.manager.Decline("offer-1"))
}

func (s *ManagerTestSuite) TestDisconnectDrainsWatchesAndJoins() {
	s.connect()
	task, future := s.launchOneTask()
	s.bus.Publish(&mesos.TaskUpdateEvent{TaskID: task.TaskID, State: mesos.TaskRunning})
	ctx, cancel := s.ctx()
	defer cancel()
	_, err := future.Get(ctx)
	s.NoError(err)
	s.waitFor(func() bool { return s.numWatches() == 1 })

	s.driver.EXPECT().Stop(true)
	s.driver.EXPECT().Join().Return(mesos.DriverStopped)

	stopFuture, err := s.manager.Disconnect()
	s.NoError(err)
	s.Equal(0, s.numWatches())

	stopCtx, stopCancel := s.ctx()
	defer stopCancel()
	value, err := stopFuture.Get(stopCtx)
	s.NoError(err)
	s.Equal(mesos.DriverStopped, value.(mesos.Status))
	s.Equal(Disconnected, s.manager.State())
}

func (s *ManagerTestSuite) TestDisconnectFailsInFlightLaunchWatch() {
	s.connect()
	task, future := s.launchOneTask()

	// The task never reached running; its launch watch is still
	// in flight when the session stops.
	s.Equal(1, s.numPending())

	s.driver.EXPECT().Stop(true)
	s.driver.EXPECT().Join().Return(mesos.DriverStopped)

	stopFuture, err := s.manager.Disconnect()
	s.NoError(err)
	s.Equal(0, s.numPending())

	ctx, cancel := s.ctx()
	defer cancel()
	_, err = future.Get(ctx)
	s.Equal(ErrSessionStopped, err)

	// A running update arriving after the drain resolves nothing.
	s.bus.Publish(&mesos.TaskUpdateEvent{TaskID: task.TaskID, State: mesos.TaskRunning})
	time.Sleep(20 * time.Millisecond)
	s.Equal(ErrSessionStopped, future.Err())
	s.Equal(0, s.numWatches())

	stopCtx, stopCancel := s.ctx()
	defer stopCancel()
	_, err = stopFuture.Get(stopCtx)
	s.NoError(err)
}

func (s *ManagerTestSuite) TestDisconnectFailsInFlightKillWatch() {
	s.connect()
	future := s.kill("task-1")
	s.Equal(1, s.numPending())

	s.driver.EXPECT().Stop(true)
	s.driver.EXPECT().Join().Return(mesos.DriverStopped)

	_, err := s.manager.Disconnect()
	s.NoError(err)
	s.Equal(0, s.numPending())

	ctx, cancel := s.ctx()
	defer cancel()
	_, err = future.Get(ctx)
	s.Equal(ErrSessionStopped, err)

	// The killed update arriving late is discarded.
	s.bus.Publish(&mesos.TaskUpdateEvent{TaskID: "task-1", State: mesos.TaskKilled})
	time.Sleep(20 * time.Millisecond)
	s.Equal(ErrSessionStopped, future.Err())
}

func (s *ManagerTestSuite) TestTerminateStopsWithoutFailover() {
	s.connect()

	s.driver.EXPECT().Stop(false)
	s.driver.EXPECT().Join().Return(mesos.DriverStopped)

	future, err := s.manager.Terminate()
	s.NoError(err)

	ctx, cancel := s.ctx()
	defer cancel()
	_, err = future.Get(ctx)
	s.NoError(err)
}

func (s *ManagerTestSuite) TestAbortAbortsDriver() {
	s.connect()

	s.driver.EXPECT().Abort()
	s.driver.EXPECT().Join().Return(mesos.DriverAborted)

	future, err := s.manager.Abort()
	s.NoError(err)

	ctx, cancel := s.ctx()
	defer cancel()
	value, err := future.Get(ctx)
	s.NoError(err)
	s.Equal(mesos.DriverAborted, value.(mesos.Status))
}

func (s *ManagerTestSuite) TestStopRequiresConnected() {
	_, err := s.manager.Disconnect()
	s.Equal(ErrNotConnected, err)
}

func TestManagerTestSuite(t *testing.T) {
	suite.Run(t, new(ManagerTestSuite))
}
