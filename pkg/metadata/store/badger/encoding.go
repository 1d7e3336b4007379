package badger

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/marmos91/servr/pkg/metadata"
)

// ============================================================================
// Key Namespace
// ============================================================================
//
// Data Type        Prefix  Key Format                    Value
// ==================================================================
// Node             "n:"    n:<owner>:<id>                Node (JSON)
// Node id index    "i:"    i:<id>                        owner id (16 bytes)
// Children index   "c:"    c:<owner>:<parent>:<child>    empty
// Account          "a:"    a:<owner>                     accountRecord (JSON)
// Email index      "e:"    e:<email>                     owner id (16 bytes)
//
// Scoping node keys by owner makes every owner check a key lookup and lets
// ListNodes scan one prefix.

const (
	prefixNode    = "n:"
	prefixNodeID  = "i:"
	prefixChild   = "c:"
	prefixAccount = "a:"
	prefixEmail   = "e:"
)

func keyNode(owner, id uuid.UUID) []byte {
	return []byte(prefixNode + owner.String() + ":" + id.String())
}

func keyNodePrefix(owner uuid.UUID) []byte {
	return []byte(prefixNode + owner.String() + ":")
}

// keyNodeID makes node ids unique across owners.
func keyNodeID(id uuid.UUID) []byte {
	return []byte(prefixNodeID + id.String())
}

func keyChild(owner, parent, child uuid.UUID) []byte {
	return []byte(prefixChild + owner.String() + ":" + parent.String() + ":" + child.String())
}

func keyChildPrefix(owner, parent uuid.UUID) []byte {
	return []byte(prefixChild + owner.String() + ":" + parent.String() + ":")
}

func keyAccount(owner uuid.UUID) []byte {
	return []byte(prefixAccount + owner.String())
}

func keyEmail(email string) []byte {
	return []byte(prefixEmail + email)
}

// ============================================================================
// Value Encoding
// ============================================================================

func encodeNode(n *metadata.Node) ([]byte, error) {
	return json.Marshal(n)
}

func decodeNode(data []byte) (*metadata.Node, error) {
	var n metadata.Node
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, err
	}
	if n.SharedWith == nil {
		n.SharedWith = []uuid.UUID{}
	}
	return &n, nil
}

// accountRecord is the persisted form of an Account. metadata.Account hides
// the password hash from JSON, so it cannot be stored as-is.
type accountRecord struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	Active       bool      `json:"active"`
	SuperUser    bool      `json:"super_user"`
	StorageUsed  int64     `json:"storage_used"`
	StorageLimit int64     `json:"storage_limit"`
	CreatedAt    time.Time `json:"created_at"`
}

func encodeAccount(a *metadata.Account) ([]byte, error) {
	return json.Marshal(accountRecord(*a))
}

func decodeAccount(data []byte) (*metadata.Account, error) {
	var r accountRecord
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	a := metadata.Account(r)
	return &a, nil
}
