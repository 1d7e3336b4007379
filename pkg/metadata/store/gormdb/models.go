package gormdb

import (
	"time"

	"github.com/google/uuid"
	"github.com/marmos91/servr/pkg/metadata"
)

// nodeModel is the row layout of the nodes table. Identifiers are stored as
// canonical UUID strings so the same schema works on SQLite and PostgreSQL.
type nodeModel struct {
	ID           string      `gorm:"primaryKey;size:36"`
	OwnerID      string      `gorm:"size:36;not null;index:idx_nodes_owner_created,priority:1"`
	ParentID     *string     `gorm:"size:36;index"`
	Parent       *nodeModel  `gorm:"foreignKey:ParentID;references:ID;constraint:OnDelete:RESTRICT"`
	Name         string      `gorm:"not null"`
	Kind         string      `gorm:"size:16;not null"`
	FileType     string      `gorm:"size:16;not null"`
	Extension    string      `gorm:"size:255"`
	Size         int64       `gorm:"not null"`
	URL          string      `gorm:"column:url"`
	CreatedAt    time.Time   `gorm:"not null;index:idx_nodes_owner_created,priority:2"`
	LastModified time.Time   `gorm:"not null"`
	SharedWith   []uuid.UUID `gorm:"serializer:json"`
}

func (nodeModel) TableName() string { return "nodes" }

type accountModel struct {
	ID           string `gorm:"primaryKey;size:36"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	Active       bool   `gorm:"not null"`
	SuperUser    bool   `gorm:"not null"`
	StorageUsed  int64  `gorm:"not null"`
	StorageLimit int64  `gorm:"not null"`
	CreatedAt    time.Time
}

func (accountModel) TableName() string { return "accounts" }

func allModels() []any {
	return []any{&nodeModel{}, &accountModel{}}
}

func fromNode(n *metadata.Node) *nodeModel {
	m := &nodeModel{
		ID:           n.ID.String(),
		OwnerID:      n.OwnerID.String(),
		Name:         n.Name,
		Kind:         string(n.Kind),
		FileType:     string(n.FileType),
		Extension:    n.Extension,
		Size:         n.Size,
		URL:          n.URL,
		CreatedAt:    n.CreatedAt,
		LastModified: n.LastModified,
		SharedWith:   n.SharedWith,
	}
	if n.ParentID != nil {
		p := n.ParentID.String()
		m.ParentID = &p
	}
	if m.SharedWith == nil {
		m.SharedWith = []uuid.UUID{}
	}
	return m
}

func (m *nodeModel) toNode() (*metadata.Node, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return nil, err
	}
	owner, err := uuid.Parse(m.OwnerID)
	if err != nil {
		return nil, err
	}
	n := &metadata.Node{
		ID:           id,
		OwnerID:      owner,
		Name:         m.Name,
		Kind:         metadata.Kind(m.Kind),
		FileType:     metadata.FileType(m.FileType),
		Extension:    m.Extension,
		Size:         m.Size,
		URL:          m.URL,
		CreatedAt:    m.CreatedAt,
		LastModified: m.LastModified,
		SharedWith:   m.SharedWith,
	}
	if m.ParentID != nil {
		parent, err := uuid.Parse(*m.ParentID)
		if err != nil {
			return nil, err
		}
		n.ParentID = &parent
	}
	if n.SharedWith == nil {
		n.SharedWith = []uuid.UUID{}
	}
	return n, nil
}

func fromAccount(a *metadata.Account) *accountModel {
	return &accountModel{
		ID:           a.ID.String(),
		Email:        a.Email,
		PasswordHash: a.PasswordHash,
		Active:       a.Active,
		SuperUser:    a.SuperUser,
		StorageUsed:  a.StorageUsed,
		StorageLimit: a.StorageLimit,
		CreatedAt:    a.CreatedAt,
	}
}

func (m *accountModel) toAccount() (*metadata.Account, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return nil, err
	}
	return &metadata.Account{
		ID:           id,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		Active:       m.Active,
		SuperUser:    m.SuperUser,
		StorageUsed:  m.StorageUsed,
		StorageLimit: m.StorageLimit,
		CreatedAt:    m.CreatedAt,
	}, nil
}
