// Package close runs shutdown functions in the reverse order of their
// registration.
package close

type Closer struct {
	closeFns []func()
}

func NewCloser() *Closer {
	return &Closer{}
}

// Add registers a function to call in CloseAll.
func (c *Closer) Add(closeFn func()) {
	c.closeFns = append(c.closeFns, closeFn)
}

// AddErr registers a function whose error is handed to onErr.
func (c *Closer) AddErr(closeFn func() error, onErr func(error)) {
	c.Add(func() {
		if err := closeFn(); err != nil {
			onErr(err)
		}
	})
}

// CloseAll calls every registered function, last added first: components
// built on top of others are created later and must stop earlier.
func (c *Closer) CloseAll() {
	for i := len(c.closeFns) - 1; i >= 0; i-- {
		c.closeFns[i]()
	}
	c.closeFns = nil
}
