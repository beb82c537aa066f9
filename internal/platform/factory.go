package platform

import (
	"github.com/aretw0/notepad/pkg/core"
)

// New opens the store at path and wraps it in a Service.
//
//	svc, err := notepad.New("./notes.db", notepad.WithExternalWatch(true))
func New(path string, opts ...Option) (*core.Service, error) {
	store, err := Init(path, opts...)
	if err != nil {
		return nil, err
	}

	o := applyOptions(opts)
	return core.NewService(store, o.logger), nil
}
