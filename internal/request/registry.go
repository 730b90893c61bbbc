// Package request builds fully-formed HTTP requests for the operations
// under contract. Operations are declared once in a registry; scenarios
// refer to them by name.
package request

import (
	"fmt"
	"sort"
)

// Operation describes the shape of one API call.
type Operation struct {
	// Name is the registry key, e.g. "products.insert".
	Name string

	// Method is the HTTP method.
	Method string

	// Path is the path template. Placeholders like {id} are substituted
	// positionally from the caller's params.
	Path string

	// HasBody reports whether the operation carries a JSON body.
	HasBody bool
}

// Registry maps operation names to their descriptors.
type Registry map[string]Operation

// DefaultRegistry returns the catalog and order operations under contract.
func DefaultRegistry() Registry {
	ops := []Operation{
		{Name: "products.get", Method: "GET", Path: "/products/{id}"},
		{Name: "products.list", Method: "GET", Path: "/products"},
		{Name: "products.insert", Method: "POST", Path: "/products", HasBody: true},
		{Name: "products.delete", Method: "DELETE", Path: "/products/{id}"},
		{Name: "orders.get", Method: "GET", Path: "/orders/{id}"},
	}

	r := make(Registry, len(ops))
	for _, op := range ops {
		r[op.Name] = op
	}
	return r
}

// Lookup resolves an operation name, with the known names in the error to
// keep scenario typos cheap to fix.
func (r Registry) Lookup(name string) (Operation, error) {
	op, ok := r[name]
	if !ok {
		names := make([]string, 0, len(r))
		for n := range r {
			names = append(names, n)
		}
		sort.Strings(names)
		return Operation{}, fmt.Errorf("unknown operation %q (known: %v)", name, names)
	}
	return op, nil
}
