// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
//
// Package vectordb adapts the teacher's QdrantVectorDB wrapper into the
// store.SimilarityBackend contract: a server-side ANN index an
// EmbeddingRepository can delegate SimilaritySearch/SimilaritySearchByFile
// to instead of its own full-scan ranking, per SPEC_FULL.md §4.d's Open
// Question resolution (see DESIGN.md).
package vectordb

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	qdrant "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"

	"github.com/northbound/knowledgehive/internal/domain"
	"github.com/northbound/knowledgehive/internal/store"
)

// QdrantBackend is a store.SimilarityBackend backed by a single Qdrant
// collection. Points are keyed by chunk id; the file id is carried in the
// point payload so Search can filter server-side by file.
type QdrantBackend struct {
	collectionsSvc qdrant.CollectionsClient
	pointsSvc      qdrant.PointsClient
	collection     string
	dimension      int
}

// NewQdrantBackend constructs a QdrantBackend over an existing gRPC
// connection and ensures its collection exists, matching the teacher's
// NewQdrantVectorDB. collection defaults to "knowledgehive_chunks" and dim
// to 1536. A differently-sized upsert updates the cached dimension only; an
// existing collection keeps the vector size it was created with.
func NewQdrantBackend(conn *grpc.ClientConn, collection string, dim int) (*QdrantBackend, error) {
	if conn == nil {
		return nil, fmt.Errorf("%w: gRPC connection is required", domain.ErrStorage)
	}
	if collection == "" {
		collection = "knowledgehive_chunks"
	}
	if dim <= 0 {
		dim = 1536
	}

	b := &QdrantBackend{
		collectionsSvc: qdrant.NewCollectionsClient(conn),
		pointsSvc:      qdrant.NewPointsClient(conn),
		collection:     collection,
		dimension:      dim,
	}
	if err := b.ensureCollection(context.Background(), dim); err != nil {
		return nil, fmt.Errorf("%w: ensure collection: %v", domain.ErrStorage, err)
	}
	return b, nil
}

func (b *QdrantBackend) ensureCollection(ctx context.Context, dim int) error {
	collections, err := b.collectionsSvc.List(ctx, &qdrant.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}

	for _, coll := range collections.Collections {
		if coll.Name == b.collection {
			b.dimension = dim
			return nil
		}
	}

	_, err = b.collectionsSvc.Create(ctx, &qdrant.CreateCollection{
		CollectionName: b.collection,
		VectorsConfig: &qdrant.VectorsConfig{
			Config: &qdrant.VectorsConfig_Params{
				Params: &qdrant.VectorParams{
					Size:     uint64(dim),
					Distance: qdrant.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	log.Printf("vectordb: created collection %s with dimension %d", b.collection, dim)
	b.dimension = dim
	return nil
}

// Upsert stores or updates chunkID's vector, tagging it with fileID so
// Search can filter server-side by file.
func (b *QdrantBackend) Upsert(ctx context.Context, chunkID, fileID uuid.UUID, vector []float32) error {
	if len(vector) == 0 {
		return fmt.Errorf("%w: vector cannot be empty", domain.ErrValidation)
	}
	if len(vector) != b.dimension {
		if err := b.ensureCollection(ctx, len(vector)); err != nil {
			return err
		}
	}

	point := &qdrant.PointStruct{
		Id: &qdrant.PointId{PointIdOptions: &qdrant.PointId_Uuid{Uuid: chunkID.String()}},
		Vectors: &qdrant.Vectors{
			VectorsOptions: &qdrant.Vectors_Vector{Vector: &qdrant.Vector{Data: vector}},
		},
		Payload: map[string]*qdrant.Value{
			"file_id": {Kind: &qdrant.Value_StringValue{StringValue: fileID.String()}},
		},
	}

	_, err := b.pointsSvc.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: b.collection,
		Points:         []*qdrant.PointStruct{point},
	})
	if err != nil {
		return fmt.Errorf("upsert point: %w", err)
	}
	return nil
}

// Search runs a nearest-neighbor query, optionally filtered to one file's
// points by payload match.
func (b *QdrantBackend) Search(ctx context.Context, query []float32, limit int, fileID *uuid.UUID) ([]store.SimilarityMatch, error) {
	if len(query) == 0 {
		return nil, fmt.Errorf("%w: query vector cannot be empty", domain.ErrValidation)
	}
	if limit <= 0 {
		limit = 10
	}

	req := &qdrant.SearchPoints{
		CollectionName: b.collection,
		Vector:         query,
		Limit:          uint64(limit),
		WithPayload:    &qdrant.WithPayloadSelector{SelectorOptions: &qdrant.WithPayloadSelector_Enable{Enable: false}},
		WithVectors:    &qdrant.WithVectorsSelector{SelectorOptions: &qdrant.WithVectorsSelector_Enable{Enable: false}},
	}
	if fileID != nil {
		req.Filter = &qdrant.Filter{
			Must: []*qdrant.Condition{
				{
					ConditionOneOf: &qdrant.Condition_Field{
						Field: &qdrant.FieldCondition{
							Key:   "file_id",
							Match: &qdrant.Match{MatchValue: &qdrant.Match_Keyword{Keyword: fileID.String()}},
						},
					},
				},
			},
		}
	}

	resp, err := b.pointsSvc.Search(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	matches := make([]store.SimilarityMatch, 0, len(resp.Result))
	for _, scored := range resp.Result {
		if scored.Id == nil {
			continue
		}
		chunkID, err := uuid.Parse(scored.Id.GetUuid())
		if err != nil {
			continue
		}
		matches = append(matches, store.SimilarityMatch{ChunkID: chunkID, Score: float64(scored.Score)})
	}
	return matches, nil
}

// Delete removes chunkID's point.
func (b *QdrantBackend) Delete(ctx context.Context, chunkID uuid.UUID) error {
	_, err := b.pointsSvc.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: b.collection,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Points{
				Points: &qdrant.PointsIdsList{Ids: []*qdrant.PointId{{PointIdOptions: &qdrant.PointId_Uuid{Uuid: chunkID.String()}}}},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("delete point: %w", err)
	}
	return nil
}

// DeleteByFileID removes every point tagged with fileID.
func (b *QdrantBackend) DeleteByFileID(ctx context.Context, fileID uuid.UUID) error {
	_, err := b.pointsSvc.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: b.collection,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Filter{
				Filter: &qdrant.Filter{
					Must: []*qdrant.Condition{
						{
							ConditionOneOf: &qdrant.Condition_Field{
								Field: &qdrant.FieldCondition{
									Key:   "file_id",
									Match: &qdrant.Match{MatchValue: &qdrant.Match_Keyword{Keyword: fileID.String()}},
								},
							},
						},
					},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("delete by file id: %w", err)
	}
	return nil
}

// PointCount returns the number of points currently in the collection,
// matching the teacher's GetPointCount.
func (b *QdrantBackend) PointCount(ctx context.Context) (int, error) {
	info, err := b.collectionsSvc.Get(ctx, &qdrant.GetCollectionInfoRequest{CollectionName: b.collection})
	if err != nil {
		return 0, fmt.Errorf("get collection info: %w", err)
	}
	if info.Result == nil || info.Result.PointsCount == nil {
		return 0, nil
	}
	return int(*info.Result.PointsCount), nil
}
