package checkout

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/electro_shop/pkg/payment"
	"github.com/Skotchmaster/electro_shop/pkg/transport"
)

var ErrNoDraft = errors.New("no checkout in progress")

// Draft is the checkout in progress. Items is a snapshot of the cart taken when
// checkout began; later cart edits do not change it.
type Draft struct {
	Step          Step                         `json:"step"`
	Items         []transport.OrderItemRequest `json:"items"`
	Shipping      *transport.ShippingAddress   `json:"shippingAddress,omitempty"`
	PaymentMethod string                       `json:"paymentMethod,omitempty"`

	// Payment is set once the gateway captured funds and stays until the order is recorded.
	Payment *payment.Result `json:"payment,omitempty"`
}

func (d *Draft) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range d.Items {
		total = total.Add(decimal.NewFromFloat(it.Price).Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}

func (d *Draft) clone() *Draft {
	cp := *d
	cp.Items = append([]transport.OrderItemRequest(nil), d.Items...)
	if d.Shipping != nil {
		s := *d.Shipping
		cp.Shipping = &s
	}
	if d.Payment != nil {
		p := *d.Payment
		cp.Payment = &p
	}
	return &cp
}

type DraftStore interface {
	Load() (*Draft, error)
	Save(*Draft) error
	Clear() error
}

type MemoryDraftStore struct {
	mu    sync.Mutex
	draft *Draft
}

func (m *MemoryDraftStore) Load() (*Draft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.draft == nil {
		return nil, ErrNoDraft
	}
	return m.draft.clone(), nil
}

func (m *MemoryDraftStore) Save(d *Draft) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.draft = d.clone()
	return nil
}

func (m *MemoryDraftStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.draft = nil
	return nil
}

// FileDraftStore keeps the draft as JSON on disk so it survives a restart between steps.
type FileDraftStore struct {
	Path string
}

func (f *FileDraftStore) Load() (*Draft, error) {
	raw, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoDraft
	}
	if err != nil {
		return nil, err
	}
	var d Draft
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("decode %s: %w", f.Path, err)
	}
	return &d, nil
}

func (f *FileDraftStore) Save(d *Draft) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return err
	}
	tmp := f.Path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, f.Path)
}

func (f *FileDraftStore) Clear() error {
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
