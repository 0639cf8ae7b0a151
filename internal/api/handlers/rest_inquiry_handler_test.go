package handlers_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bmcgrane302/properview/internal/api/handlers"
	"github.com/bmcgrane302/properview/internal/api/middleware"
	"github.com/bmcgrane302/properview/internal/models"
	"github.com/bmcgrane302/properview/internal/services"
)

func setupInquiryRouter(inquiries *MockInquiryService, agents *MockAgentService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := testConfig()
	handler := handlers.NewRestInquiryHandler(cfg, inquiries, agents)

	r := gin.New()
	r.Use(middleware.AgentAuthMiddleware(cfg.JwtSecret))
	r.POST("/api/inquiries", handler.CreateInquiry)
	r.GET("/api/inquiries", handler.ListInquiries)
	return r
}

func TestRestInquiryHandler_CreateInquiry(t *testing.T) {
	inquiries := new(MockInquiryService)
	r := setupInquiryRouter(inquiries, new(MockAgentService))

	input := models.InquiryInput{
		PropertyID: testPropertyID,
		Name:       "Jane Buyer",
		Email:      "Jane@Example.com ",
		Message:    "Is it available?",
	}
	prop := sampleProperty(t, "agent1")
	created := &models.Inquiry{
		Base:       models.NewBase(),
		PropertyID: prop.ID,
		Name:       "Jane Buyer",
		Email:      "jane@example.com",
		Message:    "Is it available?",
		CreatedAt:  time.Now().UTC(),
	}
	inquiries.On("CreateInquiry", mock.Anything, input).Return(created, nil).Once()

	w := doJSON(r, http.MethodPost, "/api/inquiries", input, nil)
	assert.Equal(t, http.StatusCreated, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "jane@example.com", body["email"])
	assert.Equal(t, testPropertyID, body["propertyId"])
	assert.Nil(t, body["phone"])
	inquiries.AssertExpectations(t)
}

func TestRestInquiryHandler_CreateInquiry_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{"missing field", &services.ValidationError{Field: "name", Message: "name is required"}, http.StatusBadRequest, "name is required"},
		{"malformed property id", fmt.Errorf("propertyId: %w", services.ErrInvalidID), http.StatusBadRequest, "Invalid property ID"},
		{"unknown property", fmt.Errorf("property: %w", services.ErrNotFound), http.StatusNotFound, "Property not found"},
		{"store failure", errors.New("insert failed"), http.StatusInternalServerError, "Failed to submit inquiry"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inquiries := new(MockInquiryService)
			r := setupInquiryRouter(inquiries, new(MockAgentService))
			inquiries.On("CreateInquiry", mock.Anything, mock.Anything).Return(nil, tt.err).Once()

			w := doJSON(r, http.MethodPost, "/api/inquiries", models.InquiryInput{PropertyID: "x"}, nil)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantError, decodeError(t, w))
		})
	}
}

func TestRestInquiryHandler_ListInquiries(t *testing.T) {
	agents := new(MockAgentService)
	r := setupInquiryRouter(new(MockInquiryService), agents)

	prop := sampleProperty(t, "agent2")
	views := []models.InquiryView{{
		Inquiry: models.Inquiry{Base: models.NewBase(), PropertyID: prop.ID, Name: "Jane", Email: "jane@example.com", Message: "Hi"},
		Property: models.PropertySummary{
			ID:      prop.ID,
			Title:   prop.Title,
			Address: prop.Address,
			Status:  prop.Status,
			AgentID: prop.AgentID,
		},
	}}
	agents.On("ListInquiries", mock.Anything, "agent2").Return(views, nil).Once()

	w := doJSON(r, http.MethodGet, "/api/inquiries?agentId=agent2", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var body []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body, 1)
	property := body[0]["property"].(map[string]interface{})
	assert.Equal(t, "Modern Downtown Condo", property["title"])
	assert.Equal(t, "jane@example.com", body[0]["email"])
	agents.AssertExpectations(t)
}

func TestRestInquiryHandler_ListInquiries_StoreError(t *testing.T) {
	agents := new(MockAgentService)
	r := setupInquiryRouter(new(MockInquiryService), agents)
	agents.On("ListInquiries", mock.Anything, "agent1").Return(nil, errors.New("aggregate failed")).Once()

	w := doJSON(r, http.MethodGet, "/api/inquiries", nil, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Failed to fetch inquiries", decodeError(t, w))
}
