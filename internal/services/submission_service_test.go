package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"field-agent/internal/models"
	"field-agent/internal/remote"
)

func writeScreenshot(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "receipt.png")
	require.NoError(t, os.WriteFile(path, []byte("png"), 0o600))
	return path
}

func TestValidateCreate(t *testing.T) {
	shot := writeScreenshot(t)
	valid := func() *models.CreateCollectionRequest {
		return &models.CreateCollectionRequest{
			CustomerID:    "C1",
			BranchID:      "1",
			Amount:        "150.5",
			PaymentMethod: "UPI",
			Screenshot:    shot,
		}
	}

	tests := []struct {
		name   string
		mutate func(r *models.CreateCollectionRequest)
		field  string
	}{
		{"no customer", func(r *models.CreateCollectionRequest) { r.CustomerID = "" }, "customer"},
		{"no branch", func(r *models.CreateCollectionRequest) { r.BranchID = " " }, "branch"},
		{"no amount", func(r *models.CreateCollectionRequest) { r.Amount = "" }, "amount"},
		{"non numeric amount", func(r *models.CreateCollectionRequest) { r.Amount = "12abc" }, "amount"},
		{"zero amount", func(r *models.CreateCollectionRequest) { r.Amount = "0" }, "amount"},
		{"negative amount", func(r *models.CreateCollectionRequest) { r.Amount = "-5" }, "amount"},
		{"unknown method", func(r *models.CreateCollectionRequest) { r.PaymentMethod = "crypto" }, "payment_method"},
		{"upi without screenshot", func(r *models.CreateCollectionRequest) { r.Screenshot = "" }, "screenshot"},
		{"cheque without screenshot", func(r *models.CreateCollectionRequest) {
			r.PaymentMethod = "cheque"
			r.Screenshot = ""
		}, "screenshot"},
		{"missing screenshot file", func(r *models.CreateCollectionRequest) { r.Screenshot = shot + ".gone" }, "screenshot"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid()
			tt.mutate(req)
			_, _, err := ValidateCreate(req)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}

	t.Run("manual customer and cash without screenshot", func(t *testing.T) {
		req := valid()
		req.CustomerID = ""
		req.ManualCustomerName = "Walk-in"
		req.PaymentMethod = "CASH"
		req.Screenshot = ""
		amount, method, err := ValidateCreate(req)
		require.NoError(t, err)
		assert.Equal(t, "150.50", amount.StringFixed(2))
		assert.Equal(t, models.PaymentCash, method)
	})

	t.Run("empty method defaults to UPI", func(t *testing.T) {
		req := valid()
		req.PaymentMethod = ""
		_, method, err := ValidateCreate(req)
		require.NoError(t, err)
		assert.Equal(t, models.PaymentUPI, method)
	})
}

func TestCreateCollection_ValidationDoesNoIO(t *testing.T) {
	env := newTestEnv(t, nil)
	_, err := env.submissions.CreateCollection(context.Background(), &models.CreateCollectionRequest{BranchID: "1", Amount: "10"})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, 0, env.backend.Calls("collections_add"))

	local, err := env.collectionRepo.ListLocal(context.Background(), "emp1")
	require.NoError(t, err)
	assert.Empty(t, local)
}

func TestCreateCollection_CashWithoutScreenshot(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)
	require.NoError(t, env.customerRepo.SaveCached(ctx, testCustomers))
	require.NoError(t, env.branchRepo.SaveCached(ctx, testBranches))
	env.backend.add = func(form remote.CollectionForm) (interface{}, error) {
		return map[string]interface{}{"status": "success", "data": map[string]interface{}{"id": "4821"}}, nil
	}

	entry, err := env.submissions.CreateCollection(ctx, &models.CreateCollectionRequest{
		CustomerID:    "C1",
		BranchID:      "2",
		Amount:        "1200",
		PaymentMethod: "cash",
	})
	require.NoError(t, err)

	require.Len(t, env.backend.forms, 1)
	form := env.backend.forms[0]
	assert.Empty(t, form.ScreenshotPath)
	assert.Equal(t, "emp1", form.UserID)
	assert.Equal(t, "emp1", form.CreatedBy)
	assert.Equal(t, "Ravi Traders", form.ClientName)
	assert.Equal(t, "Salem", form.ClientPlace)
	assert.Equal(t, "Madurai", form.Department)
	assert.Equal(t, "1200.00", form.Amount)
	assert.Equal(t, "cash", form.PaymentMethod)

	assert.Equal(t, "4821", entry.ID)
	assert.Nil(t, entry.Screenshot)
	assert.Equal(t, models.NotesEmpty, entry.Notes)

	for _, list := range []func(context.Context, string) ([]models.CollectionEntry, error){
		env.collectionRepo.ListSubmitted, env.collectionRepo.ListCached,
	} {
		entries, err := list(ctx, "emp1")
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "4821", entries[0].ID)
		assert.Nil(t, entries[0].Screenshot)
	}

	methods, err := env.paymentRepo.Load(ctx, "emp1")
	require.NoError(t, err)
	assert.Equal(t, "cash", methods["4821"])
}

func TestCreateCollection_TempIDAndManualCustomer(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)
	env.backend.add = func(form remote.CollectionForm) (interface{}, error) {
		return map[string]interface{}{"status": "success"}, nil
	}
	shot := writeScreenshot(t)

	entry, err := env.submissions.CreateCollection(ctx, &models.CreateCollectionRequest{
		ManualCustomerName:  "Roadside Stall",
		ManualCustomerPlace: "Karur",
		BranchID:            "9",
		BranchName:          "Karur",
		Amount:              "80",
		PaymentMethod:       "upi",
		Screenshot:          shot,
		Notes:               "weekly",
	})
	require.NoError(t, err)
	assert.Equal(t, "temp_1714557600000", entry.ID)
	assert.True(t, entry.IsTemporary())
	require.NotNil(t, entry.Screenshot)
	assert.Equal(t, shot, *entry.Screenshot)
	assert.Equal(t, "weekly", entry.Notes)
	assert.Equal(t, "manual_1714557600000", entry.CustomerID)

	form := env.backend.forms[0]
	assert.Equal(t, shot, form.ScreenshotPath)
	assert.Equal(t, "weekly", form.PaidFor)
	assert.Equal(t, "Roadside Stall", form.ClientName)

	manual, err := env.customerRepo.ListManual(ctx, "emp1")
	require.NoError(t, err)
	require.Len(t, manual, 1)
	assert.Equal(t, "Roadside Stall", manual[0].Name)
}

func TestCreateCollection_FailedSubmitKeepsNoManualCustomer(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)
	env.backend.add = func(form remote.CollectionForm) (interface{}, error) {
		return nil, httpError(400)
	}
	req := &models.CreateCollectionRequest{
		ManualCustomerName: "Roadside Stall",
		BranchID:           "1",
		Amount:             "80",
		PaymentMethod:      "cash",
	}

	for i := 0; i < 2; i++ {
		_, err := env.submissions.CreateCollection(ctx, req)
		require.Error(t, err)
	}
	assert.Equal(t, "Roadside Stall", env.backend.forms[0].ClientName)

	manual, err := env.customerRepo.ListManual(ctx, "emp1")
	require.NoError(t, err)
	assert.Empty(t, manual)
}

func TestCreateCollection_Retries(t *testing.T) {
	req := &models.CreateCollectionRequest{CustomerID: "C1", BranchID: "1", Amount: "10", PaymentMethod: "cash"}

	t.Run("server errors are retried", func(t *testing.T) {
		env := newTestEnv(t, nil)
		attempts := 0
		env.backend.add = func(form remote.CollectionForm) (interface{}, error) {
			attempts++
			if attempts < 3 {
				return nil, httpError(502)
			}
			return map[string]interface{}{"id": 77}, nil
		}

		entry, err := env.submissions.CreateCollection(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, "77", entry.ID)
		assert.Equal(t, 3, env.backend.Calls("collections_add"))
	})

	t.Run("client errors are not retried", func(t *testing.T) {
		env := newTestEnv(t, nil)
		env.backend.add = func(form remote.CollectionForm) (interface{}, error) {
			return nil, httpError(404)
		}

		_, err := env.submissions.CreateCollection(context.Background(), req)
		require.Error(t, err)
		assert.Equal(t, 1, env.backend.Calls("collections_add"))
		assert.Equal(t, 404, remote.StatusOf(err))
		assert.Contains(t, UserMessage(err), "404")
	})

	t.Run("gives up after the ceiling", func(t *testing.T) {
		env := newTestEnv(t, nil)
		env.backend.add = func(form remote.CollectionForm) (interface{}, error) {
			return nil, &remote.Error{Kind: remote.KindTimeout, Op: "collections_add"}
		}

		_, err := env.submissions.CreateCollection(context.Background(), req)
		require.Error(t, err)
		assert.Equal(t, 3, env.backend.Calls("collections_add"))
		assert.Equal(t, remote.KindTimeout, remote.KindOf(err))

		local, lerr := env.collectionRepo.ListLocal(context.Background(), "emp1")
		require.NoError(t, lerr)
		assert.Empty(t, local)
	})
}

func TestExtractCollectionID(t *testing.T) {
	tests := []struct {
		name string
		doc  interface{}
		want string
	}{
		{"id", map[string]interface{}{"id": "1"}, "1"},
		{"collection_id", map[string]interface{}{"collection_id": "2"}, "2"},
		{"data.id", map[string]interface{}{"data": map[string]interface{}{"id": "3"}}, "3"},
		{"collection.id", map[string]interface{}{"collection": map[string]interface{}{"id": "4"}}, "4"},
		{"data[0].id", map[string]interface{}{"data": []interface{}{map[string]interface{}{"id": "5"}}}, "5"},
		{"nothing", map[string]interface{}{"status": "success"}, ""},
		{"array document", []interface{}{}, ""},
		{"nil", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractCollectionID(tt.doc))
		})
	}
}

func TestUpdateCollection_LocalOnly(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)
	original := models.CollectionEntry{ID: "55", CustomerID: "C1", BranchID: "1", Amount: "10.00", PaymentMethod: "UPI", Screenshot: strPtr("https://x/1.png")}
	require.NoError(t, env.collectionRepo.AppendSubmitted(ctx, "emp1", original))

	updated, err := env.submissions.UpdateCollection(ctx, "55", &models.UpdateCollectionRequest{
		Amount:        "25",
		PaymentMethod: "cash",
		Notes:         "corrected",
	})
	require.NoError(t, err)
	assert.Equal(t, "25.00", updated.Amount)
	assert.Equal(t, models.PaymentCash, updated.PaymentMethod)
	assert.Equal(t, "corrected", updated.Notes)

	assert.Equal(t, 0, env.backend.Calls("collections_add"))

	for _, list := range []func(context.Context, string) ([]models.CollectionEntry, error){
		env.collectionRepo.ListSubmitted, env.collectionRepo.ListCached,
	} {
		entries, err := list(ctx, "emp1")
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "25.00", entries[0].Amount)
	}
	methods, err := env.paymentRepo.Load(ctx, "emp1")
	require.NoError(t, err)
	assert.Equal(t, "cash", methods["55"])

	_, err = env.submissions.UpdateCollection(ctx, "nope", &models.UpdateCollectionRequest{})
	assert.ErrorIs(t, err, ErrCollectionNotFound)

	_, err = env.submissions.UpdateCollection(ctx, "55", &models.UpdateCollectionRequest{Amount: "abc"})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

type fakePutter struct {
	keys []string
}

func (f *fakePutter) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.keys = append(f.keys, *params.Key)
	return &s3.PutObjectOutput{}, nil
}

func TestCreateCollection_ArchivesScreenshot(t *testing.T) {
	env := newTestEnv(t, nil)
	putter := &fakePutter{}
	env.submissions.Archive = &ScreenshotArchive{Client: putter, Bucket: "shots", Prefix: "screenshots"}
	env.backend.add = func(form remote.CollectionForm) (interface{}, error) {
		return map[string]interface{}{"id": "900"}, nil
	}

	_, err := env.submissions.CreateCollection(context.Background(), &models.CreateCollectionRequest{
		CustomerID: "C1", BranchID: "1", Amount: "5", PaymentMethod: "neft", Screenshot: writeScreenshot(t),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"screenshots/emp1/900.png"}, putter.keys)
}
