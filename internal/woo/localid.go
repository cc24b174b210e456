package woo

import "fmt"

// LocalOrRemoteID identifica una fila: por id local (autogenerado, también para
// objetos que sólo existen en el dispositivo) o por id remoto (asignado por el servidor).
type LocalOrRemoteID interface {
	Value() int64
	IsLocal() bool
	fmt.Stringer
}

type LocalID int64

func (id LocalID) Value() int64   { return int64(id) }
func (id LocalID) IsLocal() bool  { return true }
func (id LocalID) String() string { return fmt.Sprintf("local:%d", int64(id)) }

type RemoteID int64

func (id RemoteID) Value() int64   { return int64(id) }
func (id RemoteID) IsLocal() bool  { return false }
func (id RemoteID) String() string { return fmt.Sprintf("remote:%d", int64(id)) }
