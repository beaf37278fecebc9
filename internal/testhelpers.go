package internal

// CreateTestTranscript creates a transcript with one question and answer
func CreateTestTranscript(id string) *Transcript {
	return &Transcript{
		ID:        id,
		SessionID: "1700000000000",
		BaseURL:   DefaultBaseURL,
		CreatedAt: "2024-01-01T10:00:00Z",
		UpdatedAt: "2024-01-01T10:00:05Z",
		Messages: []Message{
			{
				Role:      RoleUser,
				Content:   "What is the refund policy?",
				Timestamp: "2024-01-01T10:00:00Z",
			},
			{
				Role:      RoleAssistant,
				Content:   "Refunds are processed within 14 days.",
				Timestamp: "2024-01-01T10:00:05Z",
				Metadata: &AnswerMetadata{
					Language:        "en",
					RetrievedChunks: []string{"Refunds are issued within 14 days of the request."},
				},
			},
		},
		UploadedFiles: []string{"policy.pdf"},
	}
}

// CreateTestTranscriptWithMessages creates a transcript with custom messages
func CreateTestTranscriptWithMessages(id string, messages []Message) *Transcript {
	return &Transcript{
		ID:        id,
		SessionID: "1700000000000",
		CreatedAt: "2024-01-01T10:00:00Z",
		UpdatedAt: "2024-01-01T10:00:00Z",
		Messages:  messages,
	}
}
