package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// MemoryBucket keeps objects in process memory. It backs STORAGE_DRIVER=memory and tests.
type MemoryBucket struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
	baseURL string
}

type memoryObject struct {
	data        []byte
	contentType string
}

func NewMemoryBucket(baseURL string) *MemoryBucket {
	return &MemoryBucket{objects: make(map[string]memoryObject), baseURL: strings.TrimRight(baseURL, "/")}
}

func (m *MemoryBucket) NewReader(_ context.Context, objectName string) (io.ReadCloser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[objectName]
	if !ok {
		return nil, ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

type memoryWriter struct {
	ctx         context.Context
	bucket      *MemoryBucket
	name        string
	contentType string
	buf         bytes.Buffer
}

func (w *memoryWriter) Write(p []byte) (int, error) {
	if err := w.ctx.Err(); err != nil {
		return 0, err
	}
	return w.buf.Write(p)
}

func (w *memoryWriter) Close() error {
	if err := w.ctx.Err(); err != nil {
		return err
	}
	w.bucket.mu.Lock()
	defer w.bucket.mu.Unlock()
	w.bucket.objects[w.name] = memoryObject{data: w.buf.Bytes(), contentType: w.contentType}
	return nil
}

func (m *MemoryBucket) NewWriter(ctx context.Context, objectName, contentType string) (io.WriteCloser, error) {
	return &memoryWriter{ctx: ctx, bucket: m, name: objectName, contentType: contentType}, nil
}

func (m *MemoryBucket) Delete(_ context.Context, objectName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[objectName]; !ok {
		return ErrObjectNotFound
	}
	delete(m.objects, objectName)
	return nil
}

func (m *MemoryBucket) PublicURL(objectName string) string {
	return m.baseURL + "/" + objectName
}

func (m *MemoryBucket) ObjectName(raw string) (string, error) {
	prefix := m.baseURL + "/"
	if !strings.HasPrefix(raw, prefix) {
		return "", fmt.Errorf("not a memory bucket url")
	}
	return strings.TrimPrefix(raw, prefix), nil
}

// Bytes returns a copy of an object's content.
func (m *MemoryBucket) Bytes(objectName string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[objectName]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), obj.data...), true
}

func (m *MemoryBucket) ContentType(objectName string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.objects[objectName].contentType
}
