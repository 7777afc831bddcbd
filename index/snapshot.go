package index

import (
	"bufio"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/bits-and-blooms/bitset"
	"github.com/klauspost/compress/zstd"

	"github.com/hupe1980/joingo/model"
	"github.com/hupe1980/joingo/resource"
)

// ErrCorruptSnapshot indicates a snapshot that cannot be decoded.
var ErrCorruptSnapshot = errors.New("corrupt snapshot")

const (
	snapshotVersion  = 1
	manifestFileName = "manifest.json"
)

var segmentMagic = [4]byte{'j', 'g', 's', '1'}

type manifest struct {
	Version  int               `json:"version"`
	NumDocs  int               `json:"num_docs"`
	Segments []manifestSegment `json:"segments"`
}

type manifestSegment struct {
	ID      uint64 `json:"id"`
	NumDocs int    `json:"num_docs"`
	File    string `json:"file"`
}

// WriteSnapshot persists the index to dir: one zstd-framed file per
// segment plus a JSON manifest, written last so a partial snapshot is
// never picked up. Pending documents are sealed first. Writes are
// throttled through rc when it carries an IO limit.
func (w *Writer) WriteSnapshot(ctx context.Context, dir string, rc *resource.Controller) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("snapshot: create dir: %w", err)
	}

	r := w.Reader()

	m := manifest{Version: snapshotVersion, NumDocs: r.MaxDoc()}
	for _, leaf := range r.Leaves() {
		name := fmt.Sprintf("seg-%d.bin.zst", leaf.ID())
		if err := writeSegmentFile(ctx, filepath.Join(dir, name), leaf, rc); err != nil {
			return err
		}
		m.Segments = append(m.Segments, manifestSegment{
			ID:      uint64(leaf.ID()),
			NumDocs: leaf.MaxDoc(),
			File:    name,
		})
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("snapshot: encode manifest: %w", err)
	}
	tmp := filepath.Join(dir, manifestFileName+".tmp")
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("snapshot: write manifest: %w", err)
	}
	if err := os.Rename(tmp, filepath.Join(dir, manifestFileName)); err != nil {
		return fmt.Errorf("snapshot: publish manifest: %w", err)
	}
	return nil
}

func writeSegmentFile(ctx context.Context, path string, leaf *Leaf, rc *resource.Controller) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600) //nolint:gosec // G304: path is configurable
	if err != nil {
		return fmt.Errorf("snapshot: open segment file: %w", err)
	}
	defer f.Close() //nolint:errcheck

	limited := resource.NewRateLimitedWriter(ctx, f, rc)
	zw, err := zstd.NewWriter(limited)
	if err != nil {
		return fmt.Errorf("snapshot: zstd writer: %w", err)
	}

	bw := bufio.NewWriter(zw)
	if err := encodeSegment(bw, leaf); err != nil {
		return fmt.Errorf("snapshot: encode segment %d: %w", leaf.ID(), err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("snapshot: flush segment %d: %w", leaf.ID(), err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("snapshot: close segment %d: %w", leaf.ID(), err)
	}
	return f.Close()
}

func encodeSegment(w *bufio.Writer, leaf *Leaf) error {
	if _, err := w.Write(segmentMagic[:]); err != nil {
		return err
	}

	fields := make([]string, 0, len(leaf.seg.fields))
	for name := range leaf.seg.fields {
		fields = append(fields, name)
	}
	sort.Strings(fields)

	if err := writeUvarint(w, uint64(len(fields))); err != nil {
		return err
	}
	for _, name := range fields {
		fp := leaf.seg.fields[name]
		if err := writeBytes(w, []byte(name)); err != nil {
			return err
		}
		if err := writeUvarint(w, uint64(len(fp.terms))); err != nil {
			return err
		}
		for i, term := range fp.terms {
			if err := writeBytes(w, term); err != nil {
				return err
			}
			pb, err := fp.postings[i].ToBytes()
			if err != nil {
				return err
			}
			if err := writeBytes(w, pb); err != nil {
				return err
			}
		}
	}

	var del []byte
	if leaf.deleted != nil {
		var err error
		del, err = leaf.deleted.MarshalBinary()
		if err != nil {
			return err
		}
	}
	return writeBytes(w, del)
}

// LoadSnapshot reads a snapshot written by WriteSnapshot and returns a
// Writer positioned to continue indexing. Reads are throttled through rc
// when it carries an IO limit.
func LoadSnapshot(ctx context.Context, dir string, schema Schema, rc *resource.Controller) (*Writer, error) {
	data, err := os.ReadFile(filepath.Join(dir, manifestFileName)) //nolint:gosec // G304: path is configurable
	if err != nil {
		return nil, fmt.Errorf("snapshot: read manifest: %w", err)
	}

	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: manifest: %w", ErrCorruptSnapshot, err)
	}
	if m.Version != snapshotVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorruptSnapshot, m.Version)
	}

	w := &Writer{schema: schema, pending: newPendingSegment()}
	numDocs := 0
	for _, ms := range m.Segments {
		seg, err := readSegmentFile(ctx, filepath.Join(dir, ms.File), ms, rc)
		if err != nil {
			return nil, err
		}
		w.segments = append(w.segments, seg)
		if seg.id >= w.nextSegID {
			w.nextSegID = seg.id + 1
		}
		numDocs += seg.numDocs
	}
	if numDocs != m.NumDocs {
		return nil, fmt.Errorf("%w: manifest says %d docs, segments carry %d", ErrCorruptSnapshot, m.NumDocs, numDocs)
	}
	w.numDocs = numDocs
	return w, nil
}

func readSegmentFile(ctx context.Context, path string, ms manifestSegment, rc *resource.Controller) (*Segment, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path comes from the manifest
	if err != nil {
		return nil, fmt.Errorf("snapshot: open segment file: %w", err)
	}
	defer f.Close() //nolint:errcheck

	zr, err := zstd.NewReader(resource.NewRateLimitedReader(ctx, f, rc))
	if err != nil {
		return nil, fmt.Errorf("snapshot: zstd reader: %w", err)
	}
	defer zr.Close()

	seg, err := decodeSegment(bufio.NewReader(zr), ms)
	if err != nil {
		return nil, fmt.Errorf("%w: segment %d: %w", ErrCorruptSnapshot, ms.ID, err)
	}
	return seg, nil
}

func decodeSegment(r *bufio.Reader, ms manifestSegment) (*Segment, error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, err
	}
	if magic != segmentMagic {
		return nil, fmt.Errorf("bad magic %q", magic[:])
	}

	seg := &Segment{
		id:      model.SegmentID(ms.ID),
		numDocs: ms.NumDocs,
		fields:  make(map[string]*fieldPostings),
	}

	numFields, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, err
	}
	for fieldIdx := uint64(0); fieldIdx < numFields; fieldIdx++ {
		name, err := readBytes(r)
		if err != nil {
			return nil, err
		}
		numTerms, err := binary.ReadUvarint(r)
		if err != nil {
			return nil, err
		}
		fp := &fieldPostings{
			terms:    make([]model.Term, 0, numTerms),
			postings: make([]*roaring.Bitmap, 0, numTerms),
		}
		for termIdx := uint64(0); termIdx < numTerms; termIdx++ {
			term, err := readBytes(r)
			if err != nil {
				return nil, err
			}
			pb, err := readBytes(r)
			if err != nil {
				return nil, err
			}
			rb := roaring.New()
			if err := rb.UnmarshalBinary(pb); err != nil {
				return nil, err
			}
			fp.terms = append(fp.terms, term)
			fp.postings = append(fp.postings, rb)
		}
		seg.fields[string(name)] = fp
	}

	del, err := readBytes(r)
	if err != nil {
		return nil, err
	}
	if len(del) > 0 {
		bs := bitset.New(uint(ms.NumDocs))
		if err := bs.UnmarshalBinary(del); err != nil {
			return nil, err
		}
		seg.deleted = bs
	}
	return seg, nil
}

func writeUvarint(w *bufio.Writer, v uint64) error {
	var buf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(buf[:], v)
	_, err := w.Write(buf[:n])
	return err
}

func writeBytes(w *bufio.Writer, b []byte) error {
	if err := writeUvarint(w, uint64(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

func readBytes(r *bufio.Reader) ([]byte, error) {
	n, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return b, nil
}
