package draft

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	draftsCollection = "drafts"
	chunksCollection = "chunks"
)

// chunkBytes keeps each document under Firestore's 1 MiB limit with room for
// field names and the timestamp.
const chunkBytes = 900 << 10

// firestoreDraft holds the first chunk inline. Chunks counts every chunk,
// inline one included; zero marks a document written before chunking.
type firestoreDraft struct {
	Value     []byte    `firestore:"value"`
	Chunks    int       `firestore:"chunks"`
	UpdatedAt time.Time `firestore:"updated_at"`
}

type firestoreChunk struct {
	Value []byte `firestore:"value"`
}

// FirestoreStore keeps one document per key in the "drafts" collection.
// Values larger than one document spill into a "chunks" subcollection.
type FirestoreStore struct {
	client *firestore.Client
}

func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

// doc escapes "/" which Firestore treats as a path separator.
func (s *FirestoreStore) doc(key string) *firestore.DocumentRef {
	return s.client.Collection(draftsCollection).Doc(url.PathEscape(key))
}

func chunkRef(doc *firestore.DocumentRef, i int) *firestore.DocumentRef {
	return doc.Collection(chunksCollection).Doc(strconv.Itoa(i))
}

func (s *FirestoreStore) Get(ctx context.Context, key string) ([]byte, error) {
	doc := s.doc(key)
	snap, err := doc.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, &StorageError{Op: "get", Key: key, Err: err}
	}
	var d firestoreDraft
	if err := snap.DataTo(&d); err != nil {
		return nil, &StorageError{Op: "get", Key: key, Err: err}
	}
	if d.Chunks <= 1 {
		return d.Value, nil
	}

	refs := make([]*firestore.DocumentRef, 0, d.Chunks-1)
	for i := 1; i < d.Chunks; i++ {
		refs = append(refs, chunkRef(doc, i))
	}
	snaps, err := s.client.GetAll(ctx, refs)
	if err != nil {
		return nil, &StorageError{Op: "get", Key: key, Err: err}
	}
	value := d.Value
	for i, cs := range snaps {
		if !cs.Exists() {
			return nil, &StorageError{Op: "get", Key: key, Err: fmt.Errorf("chunk %d of %d missing", i+1, d.Chunks)}
		}
		var c firestoreChunk
		if err := cs.DataTo(&c); err != nil {
			return nil, &StorageError{Op: "get", Key: key, Err: err}
		}
		value = append(value, c.Value...)
	}
	return value, nil
}

// Set writes every chunk and drops chunks a previous, longer value left
// behind, all in one transaction.
func (s *FirestoreStore) Set(ctx context.Context, key string, value []byte) error {
	doc := s.doc(key)
	chunks := splitChunks(value, chunkBytes)
	err := s.client.RunTransaction(ctx, func(_ context.Context, tx *firestore.Transaction) error {
		prev, err := storedChunks(tx, doc)
		if err != nil {
			return err
		}
		if err := tx.Set(doc, firestoreDraft{
			Value:     chunks[0],
			Chunks:    len(chunks),
			UpdatedAt: time.Now().UTC(),
		}); err != nil {
			return err
		}
		for i := 1; i < len(chunks); i++ {
			if err := tx.Set(chunkRef(doc, i), firestoreChunk{Value: chunks[i]}); err != nil {
				return err
			}
		}
		for i := len(chunks); i < prev; i++ {
			if err := tx.Delete(chunkRef(doc, i)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return &StorageError{Op: "set", Key: key, Err: err}
	}
	return nil
}

// Remove deletes the document and its chunks; removing a missing key is not
// an error.
func (s *FirestoreStore) Remove(ctx context.Context, key string) error {
	doc := s.doc(key)
	err := s.client.RunTransaction(ctx, func(_ context.Context, tx *firestore.Transaction) error {
		prev, err := storedChunks(tx, doc)
		if err != nil {
			return err
		}
		for i := 1; i < prev; i++ {
			if err := tx.Delete(chunkRef(doc, i)); err != nil {
				return err
			}
		}
		return tx.Delete(doc)
	})
	if err != nil && status.Code(err) != codes.NotFound {
		return &StorageError{Op: "remove", Key: key, Err: err}
	}
	return nil
}

// storedChunks reports how many chunks the current document spans, zero when
// it does not exist.
func storedChunks(tx *firestore.Transaction, doc *firestore.DocumentRef) (int, error) {
	snap, err := tx.Get(doc)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return 0, nil
		}
		return 0, err
	}
	var d firestoreDraft
	if err := snap.DataTo(&d); err != nil {
		return 0, err
	}
	return d.Chunks, nil
}

// splitChunks cuts value into pieces of at most size bytes. It always
// returns at least one chunk so an empty value still has a document.
func splitChunks(value []byte, size int) [][]byte {
	if len(value) <= size {
		return [][]byte{value}
	}
	chunks := make([][]byte, 0, (len(value)+size-1)/size)
	for len(value) > 0 {
		n := min(size, len(value))
		chunks = append(chunks, value[:n])
		value = value[n:]
	}
	return chunks
}

var _ Store = (*FirestoreStore)(nil)
