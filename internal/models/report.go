package models

import "time"

// Health statuses for a Report.
const (
	StatusHealthy  = "Healthy"
	StatusDiseased = "Diseased"
)

// Report records one image-prediction outcome tied to a user. UserName is
// denormalized so admin listings do not need a join.
type Report struct {
	ReportID    string    `bson:"report_id" json:"report_id"`
	UserID      string    `bson:"user_id" json:"user_id"`
	UserName    string    `bson:"user_name" json:"user_name"`
	ImageURL    string    `bson:"image_url" json:"image_url"`
	Status      string    `bson:"status" json:"status"`
	DiseaseName string    `bson:"disease_name" json:"disease_name"`
	Stage       string    `bson:"stage" json:"stage"`
	Confidence  int       `bson:"confidence" json:"confidence"`
	Precautions []string  `bson:"precautions" json:"precautions"`
	Timestamp   time.Time `bson:"timestamp" json:"timestamp"`
}

// ReportSummary is the projection used for the admin recent-activity feed.
type ReportSummary struct {
	ReportID    string    `bson:"report_id" json:"report_id"`
	UserName    string    `bson:"user_name" json:"user_name"`
	Status      string    `bson:"status" json:"status"`
	DiseaseName string    `bson:"disease_name" json:"disease_name"`
	Timestamp   time.Time `bson:"timestamp" json:"timestamp"`
}

// DiseaseCount is one bucket of the admin disease distribution.
type DiseaseCount struct {
	Disease string `bson:"_id" json:"disease"`
	Count   int64  `bson:"count" json:"count"`
}
