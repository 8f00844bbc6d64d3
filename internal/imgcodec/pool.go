package imgcodec

import "sync"

// bufferPool caches byte slices keyed by length so loading an 8-bit slice
// for pair-downsampling does not allocate a fresh scratch buffer every time.
type bufferPool struct {
	pools sync.Map // map[int]*sync.Pool
}

var scratchPool bufferPool

// GetBytes returns a []byte of length n, reused from the pool when possible.
func GetBytes(n int) []byte {
	v, ok := scratchPool.pools.Load(n)
	if !ok {
		v, _ = scratchPool.pools.LoadOrStore(n, &sync.Pool{
			New: func() any { return make([]byte, n) },
		})
	}
	p := v.(*sync.Pool)
	buf := p.Get().([]byte)
	clear(buf)
	return buf
}

// PutBytes returns buf to the pool for its length class.
func PutBytes(buf []byte) {
	v, ok := scratchPool.pools.Load(len(buf))
	if !ok {
		return
	}
	v.(*sync.Pool).Put(buf) //nolint:staticcheck // buf is a distinct slice per call
}
