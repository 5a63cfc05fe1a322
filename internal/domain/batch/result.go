package batch

// ItemStatus is the processing outcome of a single catalog item.
type ItemStatus string

// Item status values.
const (
	StatusOK    ItemStatus = "ok"
	StatusError ItemStatus = "error"
)

// Result is the outcome of importing one recipe in a catalog batch.
type Result struct {
	name   string
	status ItemStatus
	err    error
}

// NewOK creates a successful item result.
func NewOK(name string) Result { return Result{name: name, status: StatusOK} }

// NewError creates a failed item result.
func NewError(name string, err error) Result {
	return Result{name: name, status: StatusError, err: err}
}

// Name returns the recipe name.
func (r Result) Name() string { return r.name }

// Status returns the processing outcome.
func (r Result) Status() ItemStatus { return r.status }

// Err returns the error, if any.
func (r Result) Err() error { return r.err }

// Succeeded counts results with StatusOK.
func Succeeded(results []Result) int {
	n := 0
	for _, r := range results {
		if r.status == StatusOK {
			n++
		}
	}
	return n
}
