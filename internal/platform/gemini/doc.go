// Package gemini provides an implementation of the generation.Generator
// interface that uses Google's Gemini API for writing insight narratives
// over a user's cycle history.
//
// This package is an infrastructure adapter in the hexagonal architecture,
// connecting the application's domain logic to Google's external Gemini AI
// service. It translates between the application's history summaries and
// the Gemini API without exposing the details of the external service to
// the core application.
//
// Key components:
//
// 1. GeminiGenerator:
//   - Implements the generation.Generator interface
//   - Handles communication with the Gemini API
//   - Processes structured responses into narrative text
//
// 2. Prompt Management:
//   - Ships an embedded default prompt template
//   - Optionally loads an operator-supplied template from disk
//   - Substitutes the history summary into the template
//
// 3. Response Processing:
//   - Parses structured JSON responses from the API
//   - Validates responses against the expected schema
//   - Composes the stored narrative from the response fields
//
// 4. Error Handling:
//   - Retries transient failures with exponential backoff
//   - Categorizes and translates API errors to application-specific errors
//   - Handles content filtering and safety measures
package gemini
