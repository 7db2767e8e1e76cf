package billing

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repository loads billing records and the company profile
type Repository interface {
	GetInvoice(ctx context.Context, id string) (*Document, error)
	GetQuotation(ctx context.Context, id string) (*Document, error)
	// UpdateQuotationStatus moves a quotation from one status to another and
	// fails with ErrInvalidStatus when it is no longer in the from status
	UpdateQuotationStatus(ctx context.Context, id string, from, to Status) error
	CreateInvoiceFromQuotation(ctx context.Context, quotation *Document, dueDate time.Time) (*Document, error)
	GetCompanyProfile(ctx context.Context) (*CompanyProfile, error)
	SaveCompanyProfile(ctx context.Context, profile *CompanyProfile) error
	GetDashboardStats(ctx context.Context) (*DashboardStats, error)
}

// Collection names
const (
	invoicesCollection  = "invoices"
	quotationCollection = "quotations"
	customersCollection = "customers"
	companyCollection   = "companyprofiles"
)

// DefaultCompanyProfile is used until a profile has been saved
func DefaultCompanyProfile() *CompanyProfile {
	return &CompanyProfile{
		Name:     "My Agency Inc.",
		Email:    "billing@myagency.com",
		Phone:    "+1 (555) 000-0000",
		Website:  "www.myagency.com",
		Address:  "123 Innovation Drive, Silicon Valley, CA 94025",
		Currency: "USD",
	}
}

type lineItemRecord struct {
	Description string      `bson:"description"`
	Quantity    interface{} `bson:"quantity"`
	Price       interface{} `bson:"price"`
}

type billingRecord struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty"`
	Customer  interface{}         `bson:"customer"`
	Quotation *primitive.ObjectID `bson:"quotation,omitempty"`
	Status    string              `bson:"status"`
	Items     []lineItemRecord    `bson:"items"`
	Total     interface{}         `bson:"total"`
	TaxRate   interface{}         `bson:"taxRate,omitempty"`
	Date      interface{}         `bson:"date,omitempty"`
	Currency  string              `bson:"currency,omitempty"`
	Logo      string              `bson:"logo,omitempty"`
	DueDate   *time.Time          `bson:"dueDate,omitempty"`
	CreatedAt time.Time           `bson:"createdAt"`
	UpdatedAt time.Time           `bson:"updatedAt"`
}

type customerRecord struct {
	ID      primitive.ObjectID `bson:"_id,omitempty"`
	Name    string             `bson:"name"`
	Company string             `bson:"company,omitempty"`
	Email   string             `bson:"email,omitempty"`
	Phone   string             `bson:"phone,omitempty"`
	Address string             `bson:"address,omitempty"`
	Active  *bool              `bson:"active,omitempty"`
}

type companyRecord struct {
	Name           string      `bson:"name"`
	Email          string      `bson:"email"`
	Phone          string      `bson:"phone"`
	Website        string      `bson:"website"`
	Address        string      `bson:"address"`
	Logo           string      `bson:"logo,omitempty"`
	TaxRate        interface{} `bson:"taxRate,omitempty"`
	Currency       string      `bson:"currency,omitempty"`
	PDFHeaderImage string      `bson:"pdfHeaderImage,omitempty"`
}

type mongoRepository struct {
	db *mongo.Database
}

// NewMongoRepository creates a repository over the given database
func NewMongoRepository(db *mongo.Database) Repository {
	return &mongoRepository{db: db}
}

func (r *mongoRepository) GetInvoice(ctx context.Context, id string) (*Document, error) {
	return r.getDocument(ctx, invoicesCollection, KindInvoice, id)
}

func (r *mongoRepository) GetQuotation(ctx context.Context, id string) (*Document, error) {
	return r.getDocument(ctx, quotationCollection, KindQuotation, id)
}

func (r *mongoRepository) getDocument(ctx context.Context, collection string, kind DocumentKind, id string) (*Document, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid id %q", ErrNotFound, id)
	}

	var rec billingRecord
	if err := r.db.Collection(collection).FindOne(ctx, bson.M{"_id": oid}).Decode(&rec); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s %s", ErrNotFound, kind, id)
		}
		return nil, fmt.Errorf("failed to load %s: %w", kind, err)
	}

	customer, err := r.resolveCustomer(ctx, rec.Customer)
	if err != nil {
		return nil, err
	}

	doc := recordToDocument(kind, &rec)
	doc.Customer = customer
	return doc, nil
}

// resolveCustomer turns the stored customer field into a CustomerRef. A
// reference is looked up, an embedded document is used as is and a plain
// string is treated as the display name.
func (r *mongoRepository) resolveCustomer(ctx context.Context, raw interface{}) (CustomerRef, error) {
	switch v := raw.(type) {
	case primitive.ObjectID:
		var rec customerRecord
		err := r.db.Collection(customersCollection).FindOne(ctx, bson.M{"_id": v}).Decode(&rec)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return CustomerName(""), nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load customer: %w", err)
		}
		return rec.toRef(), nil
	case primitive.D, primitive.M:
		data, err := bson.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to read embedded customer: %w", err)
		}
		var rec customerRecord
		if err := bson.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("failed to read embedded customer: %w", err)
		}
		return rec.toRef(), nil
	case string:
		return CustomerName(v), nil
	default:
		return CustomerName(""), nil
	}
}

func (c customerRecord) toRef() CustomerRef {
	return CustomerRecord{Name: c.Name, Email: c.Email, Phone: c.Phone, Address: c.Address}
}

func (r *mongoRepository) UpdateQuotationStatus(ctx context.Context, id string, from, to Status) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: invalid id %q", ErrNotFound, id)
	}

	res, err := r.db.Collection(quotationCollection).UpdateOne(ctx,
		bson.M{"_id": oid, "status": statusFilter(from)},
		bson.M{"$set": bson.M{"status": string(to), "updatedAt": time.Now().UTC()}})
	if err != nil {
		return fmt.Errorf("failed to update quotation status: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: quotation %s is no longer %s", ErrInvalidStatus, id, from)
	}
	return nil
}

// statusFilter matches a stored status; records without one read as Draft
func statusFilter(status Status) interface{} {
	if status == StatusDraft {
		return bson.M{"$in": bson.A{string(StatusDraft), nil}}
	}
	return string(status)
}

func (r *mongoRepository) CreateInvoiceFromQuotation(ctx context.Context, quotation *Document, dueDate time.Time) (*Document, error) {
	quotationID, err := primitive.ObjectIDFromHex(quotation.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid id %q", ErrNotFound, quotation.ID)
	}

	now := time.Now().UTC()
	rec := billingRecord{
		Quotation: &quotationID,
		Status:    string(StatusDraft),
		Items:     make([]lineItemRecord, len(quotation.Items)),
		Total:     ComputeTotals(quotation.Items, quotation.TaxRatePercent).Total.InexactFloat64(),
		TaxRate:   quotation.TaxRatePercent,
		Currency:  quotation.Currency,
		DueDate:   &dueDate,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if customerID, err := primitive.ObjectIDFromHex(quotation.CustomerID); err == nil {
		rec.Customer = customerID
	} else if quotation.Customer != nil {
		rec.Customer = quotation.Customer.DisplayName()
	}
	if rec.Currency == "" {
		rec.Currency = "USD"
	}
	for i, item := range quotation.Items {
		rec.Items[i] = lineItemRecord{Description: item.Description, Quantity: item.Quantity, Price: item.UnitPrice}
	}

	res, err := r.db.Collection(invoicesCollection).InsertOne(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("failed to create invoice: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		rec.ID = oid
	}

	doc := recordToDocument(KindInvoice, &rec)
	doc.Customer = quotation.Customer
	doc.CustomerID = quotation.CustomerID
	return doc, nil
}

func (r *mongoRepository) GetCompanyProfile(ctx context.Context) (*CompanyProfile, error) {
	var rec companyRecord
	if err := r.db.Collection(companyCollection).FindOne(ctx, bson.M{}).Decode(&rec); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return DefaultCompanyProfile(), nil
		}
		return nil, fmt.Errorf("failed to load company profile: %w", err)
	}

	return &CompanyProfile{
		Name:        rec.Name,
		Address:     rec.Address,
		Email:       rec.Email,
		Phone:       rec.Phone,
		Website:     rec.Website,
		Currency:    rec.Currency,
		TaxRate:     toFloat(rec.TaxRate),
		Logo:        payload(rec.Logo),
		HeaderImage: payload(rec.PDFHeaderImage),
	}, nil
}

// SaveCompanyProfile replaces the single profile record, creating it when missing
func (r *mongoRepository) SaveCompanyProfile(ctx context.Context, profile *CompanyProfile) error {
	rec := companyRecord{
		Name:           profile.Name,
		Email:          profile.Email,
		Phone:          profile.Phone,
		Website:        profile.Website,
		Address:        profile.Address,
		Logo:           string(profile.Logo),
		TaxRate:        profile.TaxRate,
		Currency:       profile.Currency,
		PDFHeaderImage: string(profile.HeaderImage),
	}

	opts := options.Replace().SetUpsert(true)
	if _, err := r.db.Collection(companyCollection).ReplaceOne(ctx, bson.M{}, rec, opts); err != nil {
		return fmt.Errorf("failed to save company profile: %w", err)
	}
	return nil
}

func (r *mongoRepository) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "status", Value: bson.D{{Key: "$in", Value: bson.A{string(StatusPaid), string(StatusOverdue)}}}}}}},
		{{Key: "$group", Value: bson.D{{Key: "_id", Value: "$status"}, {Key: "total", Value: bson.D{{Key: "$sum", Value: "$total"}}}}}},
	}

	cursor, err := r.db.Collection(invoicesCollection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate invoice totals: %w", err)
	}
	var groups []struct {
		Status string  `bson:"_id"`
		Total  float64 `bson:"total"`
	}
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, fmt.Errorf("failed to read invoice totals: %w", err)
	}

	stats := &DashboardStats{}
	for _, g := range groups {
		switch Status(g.Status) {
		case StatusPaid:
			stats.TotalRevenue = g.Total
		case StatusOverdue:
			stats.Overdue = g.Total
		}
	}

	count, err := r.db.Collection(customersCollection).CountDocuments(ctx, bson.M{"active": true})
	if err != nil {
		return nil, fmt.Errorf("failed to count customers: %w", err)
	}
	stats.Customers = int(count)

	return stats, nil
}

// recordToDocument converts a stored record, leaving Customer unresolved
func recordToDocument(kind DocumentKind, rec *billingRecord) *Document {
	doc := &Document{
		ID:             rec.ID.Hex(),
		Kind:           kind,
		Date:           toTime(rec.Date),
		Items:          make([]LineItem, len(rec.Items)),
		TaxRatePercent: toFloat(rec.TaxRate),
		Currency:       rec.Currency,
		Logo:           payload(rec.Logo),
		Status:         Status(rec.Status),
		DueDate:        rec.DueDate,
	}
	if doc.Date.IsZero() {
		doc.Date = rec.CreatedAt
	}
	if doc.Status == "" {
		doc.Status = StatusDraft
	}
	if oid, ok := rec.Customer.(primitive.ObjectID); ok {
		doc.CustomerID = oid.Hex()
	}
	for i, item := range rec.Items {
		doc.Items[i] = LineItem{
			Description: item.Description,
			Quantity:    toFloat(item.Quantity),
			UnitPrice:   toFloat(item.Price),
		}
	}
	return doc
}

func payload(s string) ImagePayload {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return ImagePayload(s)
}

// toFloat coerces stored numbers and numeric strings; anything else is 0
func toFloat(v interface{}) float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case int:
		f = float64(n)
	case primitive.Decimal128:
		parsed, err := strconv.ParseFloat(n.String(), 64)
		if err != nil {
			return 0
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		f = parsed
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// toTime reads dates stored as BSON dates, epoch milliseconds or strings
func toTime(v interface{}) time.Time {
	switch t := v.(type) {
	case primitive.DateTime:
		return t.Time().UTC()
	case time.Time:
		return t
	case int64:
		return time.UnixMilli(t).UTC()
	case float64:
		return time.UnixMilli(int64(t)).UTC()
	case string:
		s := strings.TrimSpace(t)
		if idx := strings.Index(s, " ("); idx > 0 {
			s = s[:idx]
		}
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
			return time.UnixMilli(ms).UTC()
		}
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.000Z", "2006-01-02", "Mon Jan 02 2006 15:04:05 GMT-0700"} {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed
			}
		}
	}
	return time.Time{}
}
