// sieve/pkg/compiler/parser_test.go

package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFilterConfig(t *testing.T) {
	jsonData := []byte(`
		{
			"events": [
				{
					"id": "$pageview",
					"name": "$pageview",
					"type": "events",
					"order": 0,
					"properties": [{"key": "url", "value": "docs", "operator": "icontains", "type": "event"}]
				}
			],
			"actions": [{"id": "93", "name": "Test Action", "type": "actions", "order": 1}],
			"properties": [
				{"key": "email", "value": "@example.com", "operator": "icontains", "type": "person"}
			],
			"filter_test_accounts": true
		}
	`)

	spec, err := Parse(jsonData)
	require.NoError(t, err)
	require.Len(t, spec.Events, 1)
	assert.Equal(t, "$pageview", spec.Events[0].ID)
	require.Len(t, spec.Events[0].Properties, 1)
	assert.Equal(t, "icontains", spec.Events[0].Properties[0].Operator)
	require.Len(t, spec.Actions, 1)
	assert.Equal(t, "93", spec.Actions[0].ID)
	require.Len(t, spec.Properties, 1)
	assert.True(t, spec.FilterTestAccounts)
}

func TestParseInvalidJSON(t *testing.T) {
	_, err := Parse([]byte(`{"events": [`))
	assert.Error(t, err)
}

func TestParseUnknownOperator(t *testing.T) {
	jsonData := []byte(`
		{
			"properties": [
				{"key": "email", "value": "x", "operator": "does_not_exist_operator", "type": "person"}
			]
		}
	`)

	_, err := Parse(jsonData)
	var opErr *UnsupportedOperatorError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "does_not_exist_operator", opErr.Operator)
}

func TestParseMissingPropertyType(t *testing.T) {
	jsonData := []byte(`
		{
			"properties": [
				{"key": "email", "value": "x", "operator": "exact"}
			]
		}
	`)

	_, err := Parse(jsonData)
	var invalidErr *InvalidFilterError
	assert.ErrorAs(t, err, &invalidErr)
}

func TestParseEventPropertyValidated(t *testing.T) {
	jsonData := []byte(`
		{
			"events": [
				{
					"id": "$pageview",
					"properties": [{"value": "docs", "operator": "icontains", "type": "event"}]
				}
			]
		}
	`)

	_, err := Parse(jsonData)
	var invalidErr *InvalidFilterError
	assert.ErrorAs(t, err, &invalidErr)
}

func TestParseBadActionID(t *testing.T) {
	jsonData := []byte(`{"actions": [{"id": "not-a-number"}]}`)

	_, err := Parse(jsonData)
	var invalidErr *InvalidFilterError
	assert.ErrorAs(t, err, &invalidErr)
}

func TestParseNumericOperatorRejectsNonNumericValue(t *testing.T) {
	jsonData := []byte(`
		{
			"properties": [
				{"key": "count", "value": "abc", "operator": "gt", "type": "event"}
			]
		}
	`)

	_, err := Parse(jsonData)
	var invalidErr *InvalidFilterError
	assert.ErrorAs(t, err, &invalidErr)
}

func TestParseNumericOperatorAcceptsNumericString(t *testing.T) {
	jsonData := []byte(`
		{
			"properties": [
				{"key": "count", "value": "30", "operator": "gt", "type": "event"}
			]
		}
	`)

	spec, err := Parse(jsonData)
	require.NoError(t, err)
	assert.Equal(t, "30", spec.Properties[0].Value)
}

func TestParseEmptyConfig(t *testing.T) {
	spec, err := Parse([]byte(`{}`))
	require.NoError(t, err)
	assert.Empty(t, spec.Events)
	assert.Empty(t, spec.Actions)
	assert.Empty(t, spec.Properties)
	assert.False(t, spec.FilterTestAccounts)
}
