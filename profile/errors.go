package profile

import "fmt"

// LoadError reports a template or example file that cannot be used. Loading
// failures are fatal: a run never starts from a broken template.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("profile: %v", e.Err)
	}
	return fmt.Sprintf("profile: %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
