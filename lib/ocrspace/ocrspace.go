// Package ocrspace extracts text from captcha images through the
// OCR.Space API.
package ocrspace

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"cuims-backend/lib/telemetry"

	"github.com/go-resty/resty/v2"
)

const endpoint = "https://api.ocr.space/parse/image"

type Client struct {
	http   *resty.Client
	apiKey string
}

func NewClient(apiKey string) Client {
	client := resty.New()
	client.SetTimeout(time.Second * 30)
	telemetry.InstrumentResty(client, "ocrspace/http")

	return Client{
		http:   client,
		apiKey: apiKey,
	}
}

type parseResult struct {
	ParsedText string `json:"ParsedText"`
}

type parseResponse struct {
	ParsedResults         []parseResult `json:"ParsedResults"`
	IsErroredOnProcessing bool          `json:"IsErroredOnProcessing"`
	ErrorMessage          any           `json:"ErrorMessage"`
}

// Solve uploads a captcha image and returns the recognized text,
// filtered down to the characters a captcha can actually contain.
// An empty string is a valid (if useless) result, the caller is
// expected to retry its challenge.
func (c Client) Solve(ctx context.Context, image []byte) (string, error) {
	res, err := c.http.R().
		SetContext(ctx).
		SetFileReader("file", "captcha.png", bytes.NewReader(image)).
		SetFormData(map[string]string{
			"apikey":            c.apiKey,
			"language":          "eng",
			"isOverlayRequired": "false",
		}).
		Post(endpoint)
	if err != nil {
		return "", err
	}

	var parsed parseResponse
	err = json.Unmarshal(res.Body(), &parsed)
	if err != nil {
		return "", fmt.Errorf("unexpected ocr response: %w", err)
	}
	if parsed.IsErroredOnProcessing || len(parsed.ParsedResults) == 0 {
		return "", fmt.Errorf("ocr processing failed: %v", parsed.ErrorMessage)
	}

	return FilterText(parsed.ParsedResults[0].ParsedText), nil
}

const whitelist = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// FilterText strips OCR artifacts character-by-character, keeping only
// alphanumerics.
func FilterText(text string) string {
	out := strings.Builder{}
	for _, c := range text {
		if strings.ContainsRune(whitelist, c) {
			out.WriteRune(c)
		}
	}
	return out.String()
}
