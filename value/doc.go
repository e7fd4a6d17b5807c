// Package value defines the tagged value stored by every engine table.
//
// A Value carries a short name label and exactly one active arm:
//
//	Binary        owned byte buffer
//	MemoryStream  owned buffer with cursor and word width
//	String        text
//	Double        float64
//	Integer       int64
//	Pointer       non-owning reference to something outside the engine
//	Table         reserved, no constructor
//
// # Ownership
//
// Binary and MemoryStream values own their buffers. Clone deep-copies the
// buffer, Release drops it exactly once. Pointer values are copied by
// reference and never released by the engine; the external owner keeps them.
//
//	v := value.NewBinary("hero.png", data)
//	c, _ := v.Clone()   // independent buffer
//	v.Release()         // c is unaffected
//
// # Variant access
//
// Reading a value through the wrong arm returns an invalid_variant error
// (errors.ErrInvalidVariant). This is a caller bug, not a runtime condition;
// the Must* accessors panic instead.
package value
