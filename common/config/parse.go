package config

import (
	"bytes"
	"fmt"
	"io/ioutil"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gopkg.in/validator.v2"
	"gopkg.in/yaml.v2"
)

// ValidationError is returned when a configuration fails to pass
// validation.
type ValidationError struct {
	errorMap validator.ErrorMap
}

// ErrForField returns the validation error for the given field.
func (e ValidationError) ErrForField(name string) error {
	return e.errorMap[name]
}

// Error returns the error string from a ValidationError.
func (e ValidationError) Error() string {
	var w bytes.Buffer

	fmt.Fprintf(&w, "validation failed")
	for f, err := range e.errorMap {
		fmt.Fprintf(&w, "   %s: %v\n", f, err)
	}

	return w.String()
}

// Parse loads the given configFiles in order, merges them together, and
// parses the result into the given config struct. Later files override
// earlier ones field by field. The merged config is then validated.
func Parse(config interface{}, configFiles ...string) error {
	if len(configFiles) == 0 {
		return errors.New("no config files to load")
	}
	for _, fname := range configFiles {
		data, err := ioutil.ReadFile(fname)
		if err != nil {
			return errors.Wrapf(err, "failed to read config file %s", fname)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return errors.Wrapf(err, "failed to parse config file %s", fname)
		}
		log.WithField("file", fname).Debug("Loaded config file")
	}

	// Validate on the merged config at the end.
	if err := validator.Validate(config); err != nil {
		if errMap, ok := err.(validator.ErrorMap); ok {
			return ValidationError{errorMap: errMap}
		}
		return err
	}
	return nil
}
