package refdata

import (
	"fmt"

	"github.com/inodb/locusalign/internal/ld"
)

// ReferenceData bundles the reference tables with the LD panel layout. It is
// built once at startup and shared read-only across requests.
type ReferenceData struct {
	Store  *Store
	Panels ld.PanelLocator
}

// OpenReferenceData opens the reference database at dbPath and points the
// panel locator at panelDir.
func OpenReferenceData(dbPath, panelDir string) (*ReferenceData, error) {
	store, err := Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open reference db: %w", err)
	}
	return &ReferenceData{Store: store, Panels: ld.PanelLocator{Root: panelDir}}, nil
}

// Close releases the reference database.
func (r *ReferenceData) Close() error {
	return r.Store.Close()
}
