package script

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/wrx-engine/resource"
	"github.com/wippyai/wrx-engine/value"
)

// ModuleName is the import namespace of the host functions.
const ModuleName = "wrx"

// Return codes shared by every host function that can miss or fail.
const (
	CodeOK       int32 = 0
	CodeNotFound int32 = -1
	CodeError    int32 = -2
)

// Host adapts an Env to guest calls. Pointers and lengths are offsets into
// the calling module's linear memory. Functions that return a value write
// at most outCap bytes to outPtr and return the full length, so a guest
// can retry with a larger buffer.
type Host struct {
	env Env
	log *zap.Logger
}

// NewHost binds env.
func NewHost(env Env) *Host {
	return &Host{env: env, log: Logger()}
}

type hostFunc struct {
	name    string
	fn      api.GoModuleFunc
	params  []api.ValueType
	results []api.ValueType
}

func i32s(n int) []api.ValueType {
	t := make([]api.ValueType, n)
	for i := range t {
		t[i] = api.ValueTypeI32
	}
	return t
}

func (h *Host) funcs() []hostFunc {
	u := func(stack []uint64, i int) uint32 { return api.DecodeU32(stack[i]) }
	return []hostFunc{
		{"emit", func(_ context.Context, m api.Module, stack []uint64) {
			h.Emit(m.Memory(), u(stack, 0), u(stack, 1))
		}, i32s(2), nil},
		{"store_put", func(_ context.Context, m api.Module, stack []uint64) {
			stack[0] = api.EncodeI32(h.StorePut(m.Memory(), u(stack, 0), u(stack, 1), u(stack, 2), u(stack, 3)))
		}, i32s(4), i32s(1)},
		{"store_get", func(_ context.Context, m api.Module, stack []uint64) {
			stack[0] = api.EncodeI32(h.StoreGet(m.Memory(), u(stack, 0), u(stack, 1), u(stack, 2), u(stack, 3)))
		}, i32s(4), i32s(1)},
		{"store_len", func(_ context.Context, _ api.Module, stack []uint64) {
			stack[0] = api.EncodeI32(h.StoreLen())
		}, nil, i32s(1)},
		{"store_delete", func(_ context.Context, m api.Module, stack []uint64) {
			stack[0] = api.EncodeI32(h.StoreDelete(m.Memory(), u(stack, 0), u(stack, 1)))
		}, i32s(2), i32s(1)},
		{"id_alloc", func(_ context.Context, m api.Module, stack []uint64) {
			stack[0] = api.EncodeI32(h.IDAlloc(m.Memory(), u(stack, 0), u(stack, 1)))
		}, i32s(2), i32s(1)},
		{"id_lookup", func(_ context.Context, m api.Module, stack []uint64) {
			stack[0] = api.EncodeI32(h.IDLookup(m.Memory(), u(stack, 0), u(stack, 1), u(stack, 2)))
		}, i32s(3), i32s(1)},
		{"id_release", func(_ context.Context, _ api.Module, stack []uint64) {
			stack[0] = api.EncodeI32(h.IDRelease(u(stack, 0)))
		}, i32s(1), i32s(1)},
		{"share_publish", func(_ context.Context, m api.Module, stack []uint64) {
			stack[0] = api.EncodeI32(h.SharePublish(m.Memory(), u(stack, 0), u(stack, 1), u(stack, 2), u(stack, 3), u(stack, 4), u(stack, 5)))
		}, i32s(6), i32s(1)},
		{"share_read", func(_ context.Context, m api.Module, stack []uint64) {
			stack[0] = api.EncodeI32(h.ShareRead(m.Memory(), u(stack, 0), u(stack, 1), u(stack, 2), u(stack, 3), u(stack, 4), u(stack, 5)))
		}, i32s(6), i32s(1)},
	}
}

// Instantiate registers the host module in rt.
func (h *Host) Instantiate(ctx context.Context, rt wazero.Runtime) (api.Module, error) {
	builder := rt.NewHostModuleBuilder(ModuleName)
	for _, f := range h.funcs() {
		builder.NewFunctionBuilder().
			WithGoModuleFunction(f.fn, f.params, f.results).
			Export(f.name)
	}
	return builder.Instantiate(ctx)
}

func (h *Host) fail(op string, err error, fields ...zap.Field) int32 {
	h.log.Warn("host call failed", append([]zap.Field{zap.String("op", op), zap.Error(err)}, fields...)...)
	return CodeError
}

func read(mem api.Memory, ptr, n uint32) ([]byte, bool) {
	if mem == nil {
		return nil, n == 0
	}
	return mem.Read(ptr, n)
}

func readString(mem api.Memory, ptr, n uint32) (string, bool) {
	b, ok := read(mem, ptr, n)
	if !ok {
		return "", false
	}
	return string(b), true
}

// output writes v into the guest buffer and returns its full length.
func (h *Host) output(mem api.Memory, op string, v value.Value, outPtr, outCap uint32) int32 {
	data, err := encode(v)
	if err != nil {
		return h.fail(op, err)
	}
	if uint32(len(data)) <= outCap && len(data) > 0 {
		if mem == nil || !mem.Write(outPtr, data) {
			return h.fail(op, errOutOfRange(outPtr, uint32(len(data))))
		}
	}
	return int32(len(data))
}

// Emit forwards a line of guest output.
func (h *Host) Emit(mem api.Memory, ptr, n uint32) {
	msg, ok := readString(mem, ptr, n)
	if !ok {
		h.fail("emit", errOutOfRange(ptr, n))
		return
	}
	h.env.Emit(msg)
}

// StorePut stores the guest bytes at valPtr as a Binary value under key.
func (h *Host) StorePut(mem api.Memory, keyPtr, keyLen, valPtr, valLen uint32) int32 {
	key, ok := readString(mem, keyPtr, keyLen)
	if !ok {
		return h.fail("store_put", errOutOfRange(keyPtr, keyLen))
	}
	data, ok := read(mem, valPtr, valLen)
	if !ok {
		return h.fail("store_put", errOutOfRange(valPtr, valLen))
	}
	if err := h.env.Put(key, value.NewBinary(key, data)); err != nil {
		return h.fail("store_put", err, zap.String("key", key))
	}
	return CodeOK
}

// StoreGet copies the value under key into the guest buffer.
func (h *Host) StoreGet(mem api.Memory, keyPtr, keyLen, outPtr, outCap uint32) int32 {
	key, ok := readString(mem, keyPtr, keyLen)
	if !ok {
		return h.fail("store_get", errOutOfRange(keyPtr, keyLen))
	}
	v, found, err := h.env.Get(key)
	if err != nil {
		return h.fail("store_get", err, zap.String("key", key))
	}
	if !found {
		return CodeNotFound
	}
	defer v.Release()
	return h.output(mem, "store_get", v, outPtr, outCap)
}

// StoreLen returns the number of named objects.
func (h *Host) StoreLen() int32 {
	return int32(h.env.Len())
}

// StoreDelete removes key.
func (h *Host) StoreDelete(mem api.Memory, keyPtr, keyLen uint32) int32 {
	key, ok := readString(mem, keyPtr, keyLen)
	if !ok {
		return h.fail("store_delete", errOutOfRange(keyPtr, keyLen))
	}
	found, err := h.env.Delete(key)
	if err != nil {
		return h.fail("store_delete", err, zap.String("key", key))
	}
	if !found {
		return CodeNotFound
	}
	return CodeOK
}

// IDAlloc stores the guest bytes as a new object and returns its handle.
func (h *Host) IDAlloc(mem api.Memory, valPtr, valLen uint32) int32 {
	data, ok := read(mem, valPtr, valLen)
	if !ok {
		return h.fail("id_alloc", errOutOfRange(valPtr, valLen))
	}
	id, err := h.env.NewObject(value.NewBinary("object", data))
	if err != nil {
		return h.fail("id_alloc", err)
	}
	return int32(id)
}

// IDLookup copies the object at handle into the guest buffer.
func (h *Host) IDLookup(mem api.Memory, handle, outPtr, outCap uint32) int32 {
	v, found, err := h.env.Object(resource.Handle(handle))
	if err != nil {
		return h.fail("id_lookup", err, zap.Uint32("handle", handle))
	}
	if !found {
		return CodeNotFound
	}
	defer v.Release()
	return h.output(mem, "id_lookup", v, outPtr, outCap)
}

// IDRelease frees the object at handle.
func (h *Host) IDRelease(handle uint32) int32 {
	found, err := h.env.ReleaseObject(resource.Handle(handle))
	if err != nil {
		return h.fail("id_release", err, zap.Uint32("handle", handle))
	}
	if !found {
		return CodeNotFound
	}
	return CodeOK
}

// SharePublish queues the guest bytes under key on a shared object.
func (h *Host) SharePublish(mem api.Memory, namePtr, nameLen, keyPtr, keyLen, valPtr, valLen uint32) int32 {
	name, ok := readString(mem, namePtr, nameLen)
	if !ok {
		return h.fail("share_publish", errOutOfRange(namePtr, nameLen))
	}
	key, ok := readString(mem, keyPtr, keyLen)
	if !ok {
		return h.fail("share_publish", errOutOfRange(keyPtr, keyLen))
	}
	data, ok := read(mem, valPtr, valLen)
	if !ok {
		return h.fail("share_publish", errOutOfRange(valPtr, valLen))
	}
	if err := h.env.Publish(name, key, value.NewBinary(key, data)); err != nil {
		return h.fail("share_publish", err, zap.String("share", name), zap.String("key", key))
	}
	return CodeOK
}

// ShareRead copies a drained shared value into the guest buffer.
func (h *Host) ShareRead(mem api.Memory, namePtr, nameLen, keyPtr, keyLen, outPtr, outCap uint32) int32 {
	name, ok := readString(mem, namePtr, nameLen)
	if !ok {
		return h.fail("share_read", errOutOfRange(namePtr, nameLen))
	}
	key, ok := readString(mem, keyPtr, keyLen)
	if !ok {
		return h.fail("share_read", errOutOfRange(keyPtr, keyLen))
	}
	v, found, err := h.env.Read(name, key)
	if err != nil {
		return h.fail("share_read", err, zap.String("share", name), zap.String("key", key))
	}
	if !found {
		return CodeNotFound
	}
	defer v.Release()
	return h.output(mem, "share_read", v, outPtr, outCap)
}
