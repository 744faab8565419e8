package cctx

// Context carries shared handles for one service call.
type Context struct {
}

// New new context
func New() *Context {
	return &Context{}
}
