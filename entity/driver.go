package entity

import (
	"time"
)

// Onboarding steps for a driver.
const (
	StepName      = "name"
	StepPhone     = "phone"
	StepDocs      = "docs"
	StepPin       = "pin"
	StepCompleted = "completed"
)

// Approval statuses set by the back office.
const (
	ApprovalPending  = "pending"
	ApprovalApproved = "approved"
	ApprovalRejected = "rejected"
)

// DocumentSlots is the canonical order in which driver documents are collected.
var DocumentSlots = []string{
	"license_front",
	"license_back",
	"id_front",
	"id_back",
	"vehicle_registration",
	"insurance",
	"roadworthiness",
	"permit",
	"profile_photo",
	"vehicle_photo",
}

// SlotTitles maps slot names to the human-readable prompt shown in chat.
var SlotTitles = map[string]string{
	"license_front":        "driver's license (front)",
	"license_back":         "driver's license (back)",
	"id_front":             "ID document (front)",
	"id_back":              "ID document (back)",
	"vehicle_registration": "vehicle registration",
	"insurance":            "insurance certificate",
	"roadworthiness":       "roadworthiness certificate",
	"permit":               "operating permit",
	"profile_photo":        "profile photo",
	"vehicle_photo":        "vehicle photo",
}

// DocumentSlot holds the stored metadata of one submitted driver document.
// Verified stays false here; it is flipped by review tooling out of band.
type DocumentSlot struct {
	FileID     string    `json:"file_id" bson:"file_id"`
	URL        string    `json:"url" bson:"url"`
	Format     string    `json:"format" bson:"format"`
	Size       int64     `json:"size" bson:"size"`
	UploadedAt time.Time `json:"uploaded_at" bson:"uploaded_at"`
	Verified   bool      `json:"verified" bson:"verified"`
}

// PinCredential is a short-lived hashed 4-digit PIN issued after approval.
type PinCredential struct {
	Hash      string    `json:"-" bson:"hash"`
	ExpiresAt time.Time `json:"expires_at" bson:"expires_at"`
}

// Driver is a service provider going through (or past) onboarding.
// Addressable by ChatID (unique) and by Phone (unique among drivers).
type Driver struct {
	ChatID     string                  `json:"chat_id" bson:"chat_id"`
	Name       string                  `json:"name" bson:"name" validate:"omitempty,min=2,max=50"`
	Phone      string                  `json:"phone" bson:"phone" validate:"omitempty,e164"`
	Step       string                  `json:"step" bson:"step"`
	Approval   string                  `json:"approval" bson:"approval"`
	Documents  map[string]DocumentSlot `json:"documents" bson:"documents"`
	Credential *PinCredential          `json:"credential,omitempty" bson:"credential,omitempty"`
	CreatedAt  time.Time               `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time               `json:"updated_at" bson:"updated_at"`
}

// NewDriver creates a driver record at the start of onboarding.
func NewDriver(chatID string) *Driver {
	now := time.Now()
	return &Driver{
		ChatID:    chatID,
		Step:      StepName,
		Approval:  ApprovalPending,
		Documents: make(map[string]DocumentSlot),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NextDocumentSlot returns the first unfilled slot in canonical order,
// or "" when all ten are filled.
func (d *Driver) NextDocumentSlot() string {
	for _, slot := range DocumentSlots {
		if doc, ok := d.Documents[slot]; !ok || doc.URL == "" {
			return slot
		}
	}
	return ""
}

// DocumentsComplete reports whether every slot holds a stored document.
func (d *Driver) DocumentsComplete() bool {
	return d.NextDocumentSlot() == ""
}

// DocumentsFilled counts slots with a stored document.
func (d *Driver) DocumentsFilled() int {
	n := 0
	for _, slot := range DocumentSlots {
		if doc, ok := d.Documents[slot]; ok && doc.URL != "" {
			n++
		}
	}
	return n
}

// IsApproved reports whether the back office has approved the driver.
func (d *Driver) IsApproved() bool {
	return d.Approval == ApprovalApproved
}
