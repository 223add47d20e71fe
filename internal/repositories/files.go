package repositories

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mkeremcifci/CloudDrive/internal/models"
)

// FileByID fetches a single record owned by the given user.
func FileByID(ctx context.Context, owner, id uuid.UUID) (*models.File, error) {
	var file models.File
	err := DB.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, owner).
		First(&file).Error
	if err != nil {
		return nil, err
	}
	return &file, nil
}

// ListChildren returns the records directly under parent, or the owner's
// root-level records when parent is nil. Folder navigation is nothing
// more than this query, stateless per request.
func ListChildren(ctx context.Context, owner uuid.UUID, parent *uuid.UUID) ([]models.File, error) {
	q := DB.WithContext(ctx).Where("owner_id = ?", owner)
	if parent == nil {
		q = q.Where("parent_id IS NULL")
	} else {
		q = q.Where("parent_id = ?", parent)
	}

	var files []models.File
	if err := q.Order("mime_type = 'application/x-directory' DESC, name ASC").Find(&files).Error; err != nil {
		return nil, err
	}
	return files, nil
}

// ListOwned returns every record the user owns. Used to plan recursive
// deletions client-side of the database.
func ListOwned(ctx context.Context, owner uuid.UUID) ([]models.File, error) {
	var files []models.File
	err := DB.WithContext(ctx).Where("owner_id = ?", owner).Find(&files).Error
	if err != nil {
		return nil, err
	}
	return files, nil
}

// Subtree returns root and every descendant record, walking the
// parent links of the given set. The input must contain root itself.
func Subtree(files []models.File, root uuid.UUID) []models.File {
	children := make(map[uuid.UUID][]models.File, len(files))
	byID := make(map[uuid.UUID]models.File, len(files))
	for _, f := range files {
		byID[f.ID] = f
		if f.ParentID != nil {
			children[*f.ParentID] = append(children[*f.ParentID], f)
		}
	}

	rootFile, ok := byID[root]
	if !ok {
		return nil
	}

	out := []models.File{rootFile}
	queue := []uuid.UUID{root}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, child := range children[id] {
			out = append(out, child)
			queue = append(queue, child.ID)
		}
	}
	return out
}

// DeleteFileTree removes a record row. Descendant rows and dependent
// share links go with it through the relational cascade, so the count of
// deleted rows is exact regardless of tree depth.
func DeleteFileTree(ctx context.Context, owner, id uuid.UUID) error {
	return DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Where("id = ? AND owner_id = ?", id, owner).
			Delete(&models.File{}).Error
	})
}
