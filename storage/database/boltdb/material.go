package boltdb

import (
	"context"

	"github.com/csbssync/portal/core/material"
)

type materialRepository struct {
	materials collection[material.Material]
}

func NewMaterialRepository(db *DB) material.Repository {
	return &materialRepository{
		materials: collection[material.Material]{db: db, bucket: materialsBucket, notFound: material.ErrNotFound},
	}
}

func (repo *materialRepository) CreateMaterial(ctx context.Context, m material.Material) (material.Material, error) {
	m.ID = newID()
	if err := repo.materials.insert(ctx, m.ID, m); err != nil {
		return material.Material{}, err
	}
	return m, nil
}

func (repo *materialRepository) QueryAllMaterials(ctx context.Context) ([]material.Material, error) {
	return repo.materials.all(ctx, func(a, b material.Material) bool {
		return newestFirst(a.UploadDate, b.UploadDate, a.ID, b.ID)
	})
}

func (repo *materialRepository) DeleteMaterialByID(ctx context.Context, id string) error {
	return repo.materials.remove(ctx, id)
}
