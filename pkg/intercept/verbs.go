package intercept

import "net/http"

// Verbs lists the HTTP methods that have a dedicated Rule method.
var Verbs = []string{
	http.MethodGet,
	http.MethodHead,
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
	http.MethodOptions,
	http.MethodConnect,
	http.MethodTrace,
}

// Get matches GET requests on path. See Method for the accepted path forms.
func (r *Rule) Get(path any) *Rule { return r.Method(http.MethodGet, path) }

// Head matches HEAD requests on path.
func (r *Rule) Head(path any) *Rule { return r.Method(http.MethodHead, path) }

// Post matches POST requests on path.
func (r *Rule) Post(path any) *Rule { return r.Method(http.MethodPost, path) }

// Put matches PUT requests on path.
func (r *Rule) Put(path any) *Rule { return r.Method(http.MethodPut, path) }

// Patch matches PATCH requests on path.
func (r *Rule) Patch(path any) *Rule { return r.Method(http.MethodPatch, path) }

// Delete matches DELETE requests on path.
func (r *Rule) Delete(path any) *Rule { return r.Method(http.MethodDelete, path) }

// Options matches OPTIONS requests on path.
func (r *Rule) Options(path any) *Rule { return r.Method(http.MethodOptions, path) }

// Connect matches CONNECT requests on path.
func (r *Rule) Connect(path any) *Rule { return r.Method(http.MethodConnect, path) }

// Trace matches TRACE requests on path.
func (r *Rule) Trace(path any) *Rule { return r.Method(http.MethodTrace, path) }
