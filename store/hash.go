package store

const djb2Seed uint32 = 5381

// Hash is the default key hash: djb2 over the key bytes followed by a
// finalizing mix so short, similar keys spread across buckets.
func Hash(key string) uint32 {
	h := djb2Seed
	for i := 0; i < len(key); i++ {
		h = h<<5 + h + uint32(key[i])
	}
	return fmix32(h)
}

func fmix32(h uint32) uint32 {
	h ^= h >> 16
	h *= 0x3243f6a9
	h ^= h >> 16
	return h
}
