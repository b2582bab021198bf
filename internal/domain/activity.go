package domain

import "time"

// ActivityType discriminates the detail payload attached to a log entry.
type ActivityType string

const (
	ActivityMeeting      ActivityType = "MEETING"
	ActivitySales        ActivityType = "SALES"
	ActivityDistribution ActivityType = "DISTRIBUTION"
)

func ParseActivityType(s string) (ActivityType, error) {
	switch ActivityType(s) {
	case ActivityMeeting, ActivitySales, ActivityDistribution:
		return ActivityType(s), nil
	}
	return "", ErrBadRequest
}

// Activity is a geolocated field event logged by an officer. Exactly one of
// the detail pointers is set, matching Type.
type Activity struct {
	ActivityID   string               `json:"id" dynamodbav:"activity_id"`
	UserID       string               `json:"user_id" dynamodbav:"user_id"`
	Type         ActivityType         `json:"type" dynamodbav:"type"`
	Title        string               `json:"title" dynamodbav:"title"`
	Description  string               `json:"description,omitempty" dynamodbav:"description"`
	Latitude     float64              `json:"latitude" dynamodbav:"latitude"`
	Longitude    float64              `json:"longitude" dynamodbav:"longitude"`
	Timestamp    time.Time            `json:"timestamp" dynamodbav:"timestamp"`
	Meeting      *MeetingDetails      `json:"meeting,omitempty" dynamodbav:"meeting,omitempty"`
	Sale         *SaleDetails         `json:"sale,omitempty" dynamodbav:"sale,omitempty"`
	Distribution *DistributionDetails `json:"distribution,omitempty" dynamodbav:"distribution,omitempty"`
}

type MeetingDetails struct {
	AttendeeName      string  `json:"attendee_name" dynamodbav:"attendee_name"`
	Category          string  `json:"category" dynamodbav:"category"`
	ContactPhone      *string `json:"contact_phone,omitempty" dynamodbav:"contact_phone"`
	ContactEmail      *string `json:"contact_email,omitempty" dynamodbav:"contact_email"`
	BusinessPotential *string `json:"business_potential,omitempty" dynamodbav:"business_potential"`
	DurationMinutes   int     `json:"duration" dynamodbav:"duration"`
	Notes             string  `json:"notes,omitempty" dynamodbav:"notes"`
	IsGroupMeeting    bool    `json:"is_group_meeting" dynamodbav:"is_group_meeting"`
	GroupSize         *int    `json:"group_size,omitempty" dynamodbav:"group_size"`
}

type SaleDetails struct {
	ProductName   string  `json:"product_name" dynamodbav:"product_name"`
	Quantity      float64 `json:"quantity" dynamodbav:"quantity"`
	Unit          string  `json:"unit" dynamodbav:"unit"`
	Amount        float64 `json:"amount" dynamodbav:"amount"`
	BuyerName     string  `json:"buyer_name" dynamodbav:"buyer_name"`
	SaleMode      string  `json:"sale_mode" dynamodbav:"sale_mode"`
	IsRepeatOrder bool    `json:"is_repeat_order" dynamodbav:"is_repeat_order"`
	Notes         string  `json:"notes,omitempty" dynamodbav:"notes"`
}

type DistributionDetails struct {
	ProductName   string  `json:"product_name" dynamodbav:"product_name"`
	Quantity      float64 `json:"quantity" dynamodbav:"quantity"`
	Unit          string  `json:"unit" dynamodbav:"unit"`
	DistributedTo string  `json:"distributed_to" dynamodbav:"distributed_to"`
	Notes         string  `json:"notes,omitempty" dynamodbav:"notes"`
}

type CreateActivityRequest struct {
	Type         string               `json:"type" validate:"required"`
	Title        string               `json:"title" validate:"required"`
	Description  string               `json:"description"`
	Latitude     float64              `json:"latitude" validate:"required"`
	Longitude    float64              `json:"longitude" validate:"required"`
	Meeting      *MeetingDetails      `json:"meeting"`
	Sale         *SaleDetails         `json:"sale"`
	Distribution *DistributionDetails `json:"distribution"`
}
