package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
)

const textbeltURL = "https://textbelt.com/text"

// SMSSender delivers one-time codes out-of-band.
type SMSSender interface {
	SendOTP(phone, code string)
}

// TextbeltSender sends SMS through the Textbelt API.
type TextbeltSender struct {
	apiKey string
}

// NewTextbeltSender returns a sender using the given API key.
func NewTextbeltSender(apiKey string) *TextbeltSender {
	return &TextbeltSender{apiKey: apiKey}
}

// SendOTP sends the code to the phone. It runs the HTTP call in a
// goroutine so the send-otp response is not blocked on the SMS provider.
func (s *TextbeltSender) SendOTP(phone, code string) {
	message := fmt.Sprintf("Your cattle health login code is %s. It expires shortly.", code)
	go s.send(phone, message)
}

func (s *TextbeltSender) send(phone, message string) {
	postBody, _ := json.Marshal(map[string]string{
		"phone":   phone,
		"message": message,
		"key":     s.apiKey,
	})

	resp, err := http.Post(textbeltURL, "application/json", bytes.NewBuffer(postBody))
	if err != nil {
		log.Printf("Failed to send Textbelt request for number %s: %v", phone, err)
		return
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)

	success, _ := result["success"].(bool)
	if !success {
		errorMsg, _ := result["error"].(string)
		log.Printf("Failed to send SMS via Textbelt to %s. Reason: %s", phone, errorMsg)
	} else {
		log.Printf("Successfully sent SMS via Textbelt to %s", phone)
	}
}

// NoopSender drops messages. Used in dev mode, where the code is returned
// in the response body instead.
type NoopSender struct{}

func (NoopSender) SendOTP(phone, code string) {
	log.Printf("Dev mode: OTP for %s is %s", phone, code)
}
