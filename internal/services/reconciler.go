package services

import (
	"net/url"
	"sort"
	"strings"
	"time"

	"field-agent/internal/models"
	"field-agent/internal/remote"
	"field-agent/internal/timeutil"
)

// Owner field aliases on raw collection records
var ownerFields = []string{"user_id", "created_by", "userid", "user", "employee_id", "owner_id"}

// nested owner objects, e.g. {"user": {"userid": "..."}}
var nestedOwnerFields = []string{"userid", "user_id", "username", "id"}

var (
	collectionIDFields      = []string{"id", "collection_id", "pk"}
	collectionCustomerID    = []string{"customer_id", "client_id", "client_code", "customer_code"}
	collectionCustomerName  = []string{"customer_name", "client_name", "customer", "client"}
	collectionCustomerPlace = []string{"customer_place", "client_place", "place"}
	collectionBranchID      = []string{"branch_id", "department_id", "dept_id"}
	collectionBranchName    = []string{"branch_name", "department_name", "department", "branch"}
	collectionAmount        = []string{"amount", "collected_amount"}
	collectionScreenshot    = []string{"payment_screenshot", "screenshot", "screenshot_url", "image"}
	collectionCreatedAt     = []string{"created_at", "created_on", "timestamp", "date"}
	collectionPaymentMethod = []string{"payment_method", "payment_mode", "method"}
)

// Reconciler turns remote collection records and the local cache into the
// display list. It holds the reference data used for backfilling and is
// otherwise pure: it never touches the store or the network.
type Reconciler struct {
	Customers      []models.Customer
	Branches       []models.Branch
	PaymentMethods map[string]string
	// APIBase resolves relative screenshot paths
	APIBase string
}

// OwnedBy reports whether rec belongs to userID, comparing case-insensitively
func OwnedBy(rec remote.Record, userID string) bool {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return false
	}
	owner := rec.First(ownerFields...)
	if owner == "" {
		for _, key := range ownerFields {
			if nested, ok := rec.Nested(key); ok {
				if owner = nested.First(nestedOwnerFields...); owner != "" {
					break
				}
			}
		}
	}
	return owner != "" && strings.EqualFold(owner, userID)
}

// FromRemote converts one raw record. The second result is false when the
// record carries no id.
func (r *Reconciler) FromRemote(rec remote.Record) (models.CollectionEntry, bool) {
	e := models.CollectionEntry{
		ID:            rec.First(collectionIDFields...),
		CustomerID:    rec.First(collectionCustomerID...),
		CustomerName:  rec.First(collectionCustomerName...),
		CustomerPlace: rec.First(collectionCustomerPlace...),
		BranchID:      rec.First(collectionBranchID...),
		BranchName:    rec.First(collectionBranchName...),
		Amount:        rec.First(collectionAmount...),
		Notes:         rec.First("paid_for", "notes"),
		Screenshot:    ResolveScreenshot(rec.First(collectionScreenshot...), r.APIBase),
		CreatedAt:     rec.First(collectionCreatedAt...),
		PaymentMethod: rec.First(collectionPaymentMethod...),
	}
	if e.ID == "" {
		return e, false
	}
	if e.Notes == "" {
		e.Notes = models.NotesEmpty
	}
	e.CustomerPlace = r.resolvePlace(e)
	e.BranchName = r.resolveBranchName(e)
	e.PaymentMethod = r.resolvePaymentMethod(e)
	return e, true
}

// Merge keeps the user's remote records, then appends cached entries whose id
// the remote list does not have. Remote fields win for shared ids.
func (r *Reconciler) Merge(userID string, records []remote.Record, cached []models.CollectionEntry) []models.CollectionEntry {
	out := make([]models.CollectionEntry, 0, len(records)+len(cached))
	seen := make(map[string]bool, len(records)+len(cached))

	for _, rec := range records {
		if !OwnedBy(rec, userID) {
			continue
		}
		e, ok := r.FromRemote(rec)
		if !ok || seen[e.ID] {
			continue
		}
		seen[e.ID] = true
		out = append(out, e)
	}

	for _, e := range cached {
		if seen[e.ID] {
			continue
		}
		seen[e.ID] = true
		out = append(out, e)
	}
	return out
}

// Normalize backfills place and branch name, collapses placeholder notes and
// resolves the payment method. Applying it twice gives the same list.
func (r *Reconciler) Normalize(entries []models.CollectionEntry) []models.CollectionEntry {
	out := make([]models.CollectionEntry, len(entries))
	for i, e := range entries {
		e.Notes = NormalizeNotes(e.Notes)
		e.CustomerPlace = r.resolvePlace(e)
		e.BranchName = r.resolveBranchName(e)
		e.PaymentMethod = r.resolvePaymentMethod(e)
		out[i] = e
	}
	return out
}

// NormalizeNotes maps empty and placeholder notes to "No notes"
func NormalizeNotes(notes string) string {
	trimmed := strings.TrimSpace(notes)
	if trimmed == "" || trimmed == models.NotesPlaceholder {
		return models.NotesEmpty
	}
	return notes
}

// resolvePlace: direct value, exact name match, substring name match, id match
func (r *Reconciler) resolvePlace(e models.CollectionEntry) string {
	if strings.TrimSpace(e.CustomerPlace) != "" {
		return e.CustomerPlace
	}

	name := strings.ToLower(strings.TrimSpace(e.CustomerName))
	if name != "" {
		for _, c := range r.Customers {
			if c.Place != "" && strings.ToLower(strings.TrimSpace(c.Name)) == name {
				return c.Place
			}
		}
		for _, c := range r.Customers {
			candidate := strings.ToLower(strings.TrimSpace(c.Name))
			if c.Place == "" || candidate == "" {
				continue
			}
			if strings.Contains(candidate, name) || strings.Contains(name, candidate) {
				return c.Place
			}
		}
	}

	if e.CustomerID != "" {
		for _, c := range r.Customers {
			if c.Place != "" && c.ID == e.CustomerID {
				return c.Place
			}
		}
	}
	return ""
}

// resolveBranchName: direct value, id match, "Unknown Branch"
func (r *Reconciler) resolveBranchName(e models.CollectionEntry) string {
	direct := strings.TrimSpace(e.BranchName)
	if direct != "" && direct != models.UnknownBranchName {
		return e.BranchName
	}
	if e.BranchID != "" {
		for _, b := range r.Branches {
			if b.ID == e.BranchID && b.Name != "" {
				return b.Name
			}
		}
	}
	return models.UnknownBranchName
}

// resolvePaymentMethod: side-table, the record's own valid value, UPI
func (r *Reconciler) resolvePaymentMethod(e models.CollectionEntry) string {
	if method, ok := models.NormalizePaymentMethod(r.PaymentMethods[e.ID]); ok {
		return method
	}
	if method, ok := models.NormalizePaymentMethod(e.PaymentMethod); ok {
		return method
	}
	return models.PaymentUPI
}

// ResolveScreenshot returns absolute URLs unchanged and prefixes anything
// else with the API host. Empty input gives nil.
func ResolveScreenshot(raw, apiBase string) *string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	lower := strings.ToLower(raw)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return &raw
	}

	host := apiHost(apiBase)
	var resolved string
	if strings.HasPrefix(raw, "/") {
		resolved = host + raw
	} else {
		resolved = host + "/" + raw
	}
	return &resolved
}

// apiHost reduces the API base URL to scheme://host
func apiHost(base string) string {
	u, err := url.Parse(strings.TrimSpace(base))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return strings.TrimRight(base, "/")
	}
	return u.Scheme + "://" + u.Host
}

// SortNewestFirst orders by createdAt descending, then id ascending.
// Entries whose timestamp cannot be parsed go last.
func SortNewestFirst(entries []models.CollectionEntry) {
	type keyed struct {
		at time.Time
		ok bool
	}
	keys := make(map[string]keyed, len(entries))
	for _, e := range entries {
		at, ok := timeutil.ParseTimestamp(e.CreatedAt)
		keys[e.ID] = keyed{at: at, ok: ok}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := keys[entries[i].ID], keys[entries[j].ID]
		if a.ok != b.ok {
			return a.ok
		}
		if a.ok && !a.at.Equal(b.at) {
			return a.at.After(b.at)
		}
		return entries[i].ID < entries[j].ID
	})
}
