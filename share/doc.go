// Package share hands tagged values from one goroutine to another.
//
// A Registry holds two tables behind one mutex. Publish writes into the
// pending table; Drain moves pending entries into the current table; Read
// looks only at the current table:
//
//	r := share.New("player")
//	_ = r.Publish("pos", value.NewBinary("pos", xy))
//	_, ok, _ := r.Read("pos") // ok == false, still pending
//	changes, _ := r.Drain()
//	v, ok, _ := r.Read("pos") // ok == true
//
// When two goroutines publish the same key before a drain, the one whose
// critical section ran last wins.
package share
