package command

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/spec-kit/milestone-tracker/internal/api/dto"
	"github.com/spec-kit/milestone-tracker/internal/domain"
)

// DecodeUsers parses a users fixture. YAML is a superset of JSON, so both
// formats go through the YAML decoder.
func DecodeUsers(data []byte) ([]*domain.User, error) {
	var records []dto.UserRecord
	if err := yaml.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return dto.UsersToDomain(records)
}

// DecodeCommands parses a JSON array of commands.
func DecodeCommands(data []byte) ([]Command, error) {
	var commands []Command
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&commands); err != nil {
		return nil, fmt.Errorf("decode commands: %w", err)
	}
	return commands, nil
}

// EncodeResults renders results as an indented JSON array.
func EncodeResults(results []Result) ([]byte, error) {
	if results == nil {
		results = []Result{}
	}
	out, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode results: %w", err)
	}
	return out, nil
}
