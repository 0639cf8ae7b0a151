// Package seed loads the demo catalogue used for local development and demos.
package seed

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/bmcgrane302/properview/internal/auth"
	"github.com/bmcgrane302/properview/internal/db"
	"github.com/bmcgrane302/properview/internal/models"
)

// AgentSummary counts one agent's properties by status.
type AgentSummary struct {
	AgentID string `bson:"_id"`
	Count   int    `bson:"count"`
	Active  int    `bson:"active"`
	Pending int    `bson:"pending"`
	Sold    int    `bson:"sold"`
}

// Result reports what Run inserted.
type Result struct {
	Properties int
	Inquiries  int64
	Agents     []AgentSummary
}

type sampleProperty struct {
	title, address, description string
	price, bedrooms, bathrooms  int
	status                      models.PropertyStatus
	agentID                     string
}

var sampleCatalogue = []sampleProperty{
	{"Modern Downtown Condo", "123 Main Street, Downtown, CA 90210", "Beautiful modern condo in the heart of downtown with stunning city views. Features include hardwood floors, granite countertops, and stainless steel appliances.", 750000, 2, 2, models.PropertyStatusActive, "agent1"},
	{"Family Home with Large Yard", "456 Oak Avenue, Suburban Heights, CA 90211", "Spacious family home with a large backyard, perfect for entertaining. Updated kitchen, master suite, and two-car garage.", 950000, 4, 3, models.PropertyStatusActive, "agent1"},
	{"Luxury Penthouse Suite", "789 Skyline Drive, Beverly Hills, CA 90210", "Stunning penthouse with panoramic city views, private elevator access, marble floors, and premium finishes throughout.", 1800000, 3, 3, models.PropertyStatusPending, "agent1"},
	{"Cozy Studio Apartment", "321 Pine Street, Arts District, CA 90012", "Charming studio apartment in the trendy Arts District. Exposed brick walls, high ceilings, and modern fixtures.", 425000, 1, 1, models.PropertyStatusActive, "agent2"},
	{"Historic Craftsman Home", "654 Elm Street, Pasadena, CA 91101", "Beautifully restored Craftsman home with original hardwood floors, built-in cabinetry, and a wraparound porch.", 1200000, 3, 2, models.PropertyStatusSold, "agent2"},
	{"Beachside Cottage", "789 Ocean Breeze Lane, Santa Monica, CA 90401", "Charming beachside cottage just steps from the sand. Perfect for weekend getaways or year-round coastal living.", 895000, 2, 2, models.PropertyStatusActive, "agent2"},
	{"Modern Townhouse", "987 Maple Court, West Hills, CA 91307", "Contemporary townhouse with open floor plan, rooftop deck, and attached garage. Move-in ready!", 850000, 3, 3, models.PropertyStatusActive, "agent3"},
	{"Investment Property Duplex", "246 Cedar Lane, Silver Lake, CA 90026", "Great investment opportunity! Duplex with two 2-bedroom units, separate entrances, and parking for 4 cars.", 1100000, 4, 4, models.PropertyStatusActive, "agent3"},
	{"Mountain View Ranch", "555 Ridge Road, Malibu Hills, CA 90265", "Expansive ranch-style home with breathtaking mountain views, horse stables, and 2-acre lot. Perfect for equestrian enthusiasts.", 1350000, 4, 3, models.PropertyStatusPending, "agent3"},
}

type sampleInquiry struct {
	propertyIndex               int
	name, email, phone, message string
}

var sampleInbox = []sampleInquiry{
	{0, "John Smith", "john@example.com", "(555) 123-4567", "I'm interested in scheduling a viewing. Is this property still available?"},
	{1, "Sarah Johnson", "sarah@example.com", "(555) 987-6543", "Could you provide more information about the neighborhood and nearby schools?"},
	{3, "Michael Chen", "mchen@email.com", "(555) 456-7890", "I'd like to know more about the HOA fees and what amenities are included."},
	{4, "Emily Rodriguez", "emily.r@email.com", "(555) 234-5678", "Is this property pet-friendly? I have two cats."},
	{6, "David Park", "dpark@email.com", "(555) 345-6789", "What's the timeline for closing if we decide to make an offer?"},
}

// SampleProperties returns the demo catalogue with fresh ids. Each listing is one
// second older than the previous so newest-first ordering is stable.
func SampleProperties(now time.Time) []models.Property {
	properties := make([]models.Property, 0, len(sampleCatalogue))
	for i, s := range sampleCatalogue {
		ts := now.Add(-time.Duration(i) * time.Second)
		properties = append(properties, models.Property{
			Base:        models.NewBase(),
			Title:       s.title,
			Price:       s.price,
			Address:     s.address,
			Bedrooms:    s.bedrooms,
			Bathrooms:   s.bathrooms,
			Description: s.description,
			Status:      s.status,
			AgentID:     s.agentID,
			CreatedAt:   ts,
			UpdatedAt:   ts,
		})
	}
	return properties
}

// SampleInquiries attaches the demo inquiries to properties, which must be the
// slice returned by SampleProperties.
func SampleInquiries(properties []models.Property, now time.Time) ([]models.Inquiry, error) {
	inquiries := make([]models.Inquiry, 0, len(sampleInbox))
	for i, s := range sampleInbox {
		if s.propertyIndex >= len(properties) {
			return nil, fmt.Errorf("sample inquiry %d refers to property %d of %d", i, s.propertyIndex, len(properties))
		}
		phone := s.phone
		inquiries = append(inquiries, models.Inquiry{
			Base:       models.NewBase(),
			PropertyID: properties[s.propertyIndex].ID,
			Name:       s.name,
			Email:      s.email,
			Phone:      &phone,
			Message:    s.message,
			CreatedAt:  now.Add(-time.Duration(i) * time.Second),
		})
	}
	return inquiries, nil
}

func countStatus(status models.PropertyStatus) bson.M {
	return bson.M{"$sum": bson.M{"$cond": bson.A{bson.M{"$eq": bson.A{"$status", status}}, 1, 0}}}
}

// summaryPipeline groups properties per agent with a count for each status.
func summaryPipeline() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$agentId"},
			{Key: "count", Value: bson.M{"$sum": 1}},
			{Key: "active", Value: countStatus(models.PropertyStatusActive)},
			{Key: "pending", Value: countStatus(models.PropertyStatusPending)},
			{Key: "sold", Value: countStatus(models.PropertyStatusSold)},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}
}

// Run clears both collections and inserts the demo data.
func Run(ctx context.Context, database *mongo.Database) (*Result, error) {
	propertiesColl := database.Collection(db.PropertiesCollection)
	inquiriesColl := database.Collection(db.InquiriesCollection)

	if _, err := propertiesColl.DeleteMany(ctx, bson.M{}); err != nil {
		return nil, fmt.Errorf("failed to clear properties: %w", err)
	}
	if _, err := inquiriesColl.DeleteMany(ctx, bson.M{}); err != nil {
		return nil, fmt.Errorf("failed to clear inquiries: %w", err)
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	properties := SampleProperties(now)
	docs := make([]interface{}, len(properties))
	for i := range properties {
		docs[i] = properties[i]
	}
	if _, err := propertiesColl.InsertMany(ctx, docs); err != nil {
		return nil, fmt.Errorf("failed to insert sample properties: %w", err)
	}

	inquiries, err := SampleInquiries(properties, now)
	if err != nil {
		return nil, err
	}
	docs = make([]interface{}, len(inquiries))
	for i := range inquiries {
		docs[i] = inquiries[i]
	}
	if _, err := inquiriesColl.InsertMany(ctx, docs); err != nil {
		return nil, fmt.Errorf("failed to insert sample inquiries: %w", err)
	}

	cursor, err := propertiesColl.Aggregate(ctx, summaryPipeline())
	if err != nil {
		return nil, fmt.Errorf("failed to summarise properties: %w", err)
	}
	var agents []AgentSummary
	if err := cursor.All(ctx, &agents); err != nil {
		return nil, fmt.Errorf("failed to decode property summary: %w", err)
	}

	total, err := inquiriesColl.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to count inquiries: %w", err)
	}

	return &Result{Properties: len(properties), Inquiries: total, Agents: agents}, nil
}

// PrintSummary writes a human-readable report of r, followed by the demo logins.
func PrintSummary(w io.Writer, r *Result, accounts []auth.DemoAccount) {
	fmt.Fprintf(w, "Inserted %d properties and %d inquiries\n\n", r.Properties, r.Inquiries)
	fmt.Fprintln(w, "Database summary:")
	for _, a := range r.Agents {
		fmt.Fprintf(w, "%s: %d properties (%d active, %d pending, %d sold)\n", a.AgentID, a.Count, a.Active, a.Pending, a.Sold)
	}
	fmt.Fprintln(w, "\nDemo agent accounts:")
	for _, acc := range accounts {
		fmt.Fprintf(w, "%s (%s - %s)\n", acc.Agent.Email, acc.Agent.Name, acc.Agent.Role)
	}
	if len(accounts) > 0 {
		fmt.Fprintf(w, "Password for all: %s\n", accounts[0].Password)
	}
}
