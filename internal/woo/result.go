// Package woo contiene los tipos compartidos por todos los stores de WooCommerce:
// el resultado tipado, el error de dominio y el id local/remoto.
package woo

// Result es lo que devuelve cada operación de un Store: Model o Error, nunca ambos.
type Result[T any] struct {
	Model T         `json:"model"`
	Error *WooError `json:"error,omitempty"`
}

func (r Result[T]) IsError() bool {
	return r.Error != nil
}

func Success[T any](model T) Result[T] {
	return Result[T]{Model: model}
}

func Failure[T any](err *WooError) Result[T] {
	if err == nil {
		err = &WooError{Type: ErrorGeneric, Original: "UNKNOWN"}
	}
	return Result[T]{Error: err}
}
