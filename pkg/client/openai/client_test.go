package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/fpt/gptchat/pkg/message"
)

const completionBody = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1700000000,
  "model": "gpt-3.5-turbo",
  "choices": [{"index": 0, "message": {"role": "assistant", "content": "Hello!"}, "finish_reason": "stop"}],
  "usage": {"prompt_tokens": 12, "completion_tokens": 3, "total_tokens": 15}
}`

type capturedRequest struct {
	path    string
	query   string
	headers http.Header
	body    string
}

func newServer(t *testing.T, status int, body string) (*httptest.Server, *capturedRequest) {
	t.Helper()
	captured := &capturedRequest{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		captured.path = r.URL.Path
		captured.query = r.URL.RawQuery
		captured.headers = r.Header.Clone()
		captured.body = string(data)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server, captured
}

func simpleRequest() *ChatRequest {
	return &ChatRequest{
		Model:    "gpt-3.5-turbo",
		Messages: []message.Message{*message.NewUserMessage("Hi")},
	}
}

func TestParseDeployment(t *testing.T) {
	testCases := []struct {
		input    string
		expected Deployment
		wantErr  bool
	}{
		{"", DeploymentDirect, false},
		{"direct", DeploymentDirect, false},
		{"OpenAI", DeploymentDirect, false},
		{" azure ", DeploymentAzure, false},
		{"bedrock", 0, true},
	}

	for _, tc := range testCases {
		got, err := ParseDeployment(tc.input)
		if tc.wantErr {
			assert.True(t, errors.Is(err, ErrUnknownDeployment), "input %q", tc.input)
			continue
		}
		require.NoError(t, err, "input %q", tc.input)
		assert.Equal(t, tc.expected, got, "input %q", tc.input)
	}
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient(Config{Deployment: DeploymentDirect})
	assert.True(t, errors.Is(err, ErrMissingAPIKey))

	_, err = NewClient(Config{Deployment: DeploymentAzure, APIKey: "k"})
	assert.True(t, errors.Is(err, ErrMissingChatURL))

	_, err = NewClient(Config{Deployment: Deployment(9), APIKey: "k"})
	assert.True(t, errors.Is(err, ErrUnknownDeployment))

	client, err := NewClient(Config{Deployment: DeploymentAzure, APIKey: "k", ChatURL: "https://example.invalid/chat"})
	require.NoError(t, err)
	assert.Equal(t, DeploymentAzure, client.Deployment())
}

func TestSend_DirectUsesBearerToken(t *testing.T) {
	server, captured := newServer(t, http.StatusOK, completionBody)

	client, err := NewClient(Config{
		Deployment: DeploymentDirect,
		APIKey:     "sk-test",
		BaseURL:    server.URL + "/v1/",
	})
	require.NoError(t, err)

	resp, err := client.Send(context.Background(), simpleRequest())
	require.NoError(t, err)

	assert.Equal(t, "/v1/chat/completions", captured.path)
	assert.Equal(t, "Bearer sk-test", captured.headers.Get("Authorization"))
	assert.Empty(t, captured.headers.Get("api-key"))

	require.NotNil(t, resp.FirstMessage())
	assert.Equal(t, "Hello!", resp.FirstMessage().Text())
	assert.Equal(t, message.RoleAssistant, resp.FirstMessage().Role)
	assert.Equal(t, message.TokenUsage{InputTokens: 12, OutputTokens: 3, TotalTokens: 15}, resp.TokenUsage())
	assert.True(t, resp.IsSuccess())
	assert.False(t, resp.IsFunctionCall())
}

func TestSend_AzureUsesAPIKeyHeader(t *testing.T) {
	// a stray bearer key in the environment must not leak to azure
	t.Setenv("OPENAI_API_KEY", "sk-should-not-be-sent")

	server, captured := newServer(t, http.StatusOK, completionBody)

	client, err := NewClient(Config{
		Deployment: DeploymentAzure,
		APIKey:     "azure-key",
		ChatURL:    server.URL + "/openai/deployments/gpt35/chat/completions?api-version=2023-07-01-preview",
	})
	require.NoError(t, err)

	_, err = client.Send(context.Background(), simpleRequest())
	require.NoError(t, err)

	assert.Equal(t, "/openai/deployments/gpt35/chat/completions", captured.path)
	assert.Equal(t, "api-version=2023-07-01-preview", captured.query)
	assert.Equal(t, "azure-key", captured.headers.Get("api-key"))
	assert.Empty(t, captured.headers.Get("Authorization"))
}

func TestSend_RequestBodyShape(t *testing.T) {
	server, captured := newServer(t, http.StatusOK, completionBody)

	client, err := NewClient(Config{Deployment: DeploymentDirect, APIKey: "sk-test", BaseURL: server.URL})
	require.NoError(t, err)

	type params struct {
		City string `json:"city" jsonschema:"required"`
	}
	req := &ChatRequest{
		Model: "gpt-4",
		Messages: []message.Message{
			*message.NewSystemMessage("Be brief"),
			*message.NewFunctionCallMessage(message.FunctionCall{Name: "get_weather", Arguments: `{"city":"Paris"}`}),
			*message.NewFunctionResultMessage("get_weather", "sunny"),
		},
		Functions:    []message.FunctionDeclaration{message.NewFunctionDeclaration[params]("get_weather", "Weather lookup")},
		FunctionCall: FunctionCallAuto,
	}

	_, err = client.Send(context.Background(), req)
	require.NoError(t, err)

	body := captured.body
	require.True(t, gjson.Valid(body))
	assert.Equal(t, "gpt-4", gjson.Get(body, "model").String())
	assert.Equal(t, "auto", gjson.Get(body, "function_call").String())
	assert.Equal(t, int64(3), gjson.Get(body, "messages.#").Int())
	assert.Equal(t, "system", gjson.Get(body, "messages.0.role").String())
	assert.Equal(t, gjson.Null, gjson.Get(body, "messages.1.content").Type)
	assert.Equal(t, "get_weather", gjson.Get(body, "messages.1.function_call.name").String())
	assert.Equal(t, "function", gjson.Get(body, "messages.2.role").String())
	assert.Equal(t, "get_weather", gjson.Get(body, "messages.2.name").String())
	assert.Equal(t, "get_weather", gjson.Get(body, "functions.0.name").String())
	assert.Equal(t, "object", gjson.Get(body, "functions.0.parameters.type").String())
}

func TestSend_OmitsFunctionFieldsWhenNoneDeclared(t *testing.T) {
	server, captured := newServer(t, http.StatusOK, completionBody)

	client, err := NewClient(Config{Deployment: DeploymentDirect, APIKey: "sk-test", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = client.Send(context.Background(), simpleRequest())
	require.NoError(t, err)

	assert.False(t, gjson.Get(captured.body, "functions").Exists())
	assert.False(t, gjson.Get(captured.body, "function_call").Exists())
}

func TestSend_FunctionCallResponse(t *testing.T) {
	body := `{"id":"c","object":"chat.completion","created":1,"model":"gpt-4",
	  "choices":[{"index":0,"message":{"role":"assistant","content":null,"function_call":{"name":"get_weather","arguments":"{\"city\":\"Paris\"}"}},"finish_reason":"function_call"}],
	  "usage":{"prompt_tokens":1,"completion_tokens":1,"total_tokens":2}}`
	server, _ := newServer(t, http.StatusOK, body)

	client, err := NewClient(Config{Deployment: DeploymentDirect, APIKey: "sk-test", BaseURL: server.URL})
	require.NoError(t, err)

	resp, err := client.Send(context.Background(), simpleRequest())
	require.NoError(t, err)
	require.True(t, resp.IsFunctionCall())

	msg := resp.FirstMessage()
	assert.Nil(t, msg.Content)
	assert.Equal(t, "Paris", msg.FunctionCall.Argument("city").String())
	assert.Equal(t, "function_call", resp.Choices[0].FinishReason)
}

func TestSend_ErrorObjectInBody(t *testing.T) {
	server, _ := newServer(t, http.StatusOK, `{"error":{"message":"deployment not found","type":"invalid_request_error"}}`)

	client, err := NewClient(Config{Deployment: DeploymentDirect, APIKey: "sk-test", BaseURL: server.URL})
	require.NoError(t, err)

	resp, err := client.Send(context.Background(), simpleRequest())
	assert.Nil(t, resp)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAPI))
	assert.Contains(t, err.Error(), "deployment not found")
}

func TestSend_HTTPErrorStatus(t *testing.T) {
	server, _ := newServer(t, http.StatusUnauthorized, `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`)

	client, err := NewClient(Config{Deployment: DeploymentDirect, APIKey: "sk-bad", BaseURL: server.URL})
	require.NoError(t, err)

	resp, err := client.Send(context.Background(), simpleRequest())
	assert.Nil(t, resp)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestSend_UndecodableBody(t *testing.T) {
	server, _ := newServer(t, http.StatusOK, `{"choices": [`)

	client, err := NewClient(Config{Deployment: DeploymentDirect, APIKey: "sk-test", BaseURL: server.URL})
	require.NoError(t, err)

	resp, err := client.Send(context.Background(), simpleRequest())
	assert.Nil(t, resp)
	assert.Error(t, err)
}

func TestSend_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(Config{
		Deployment: DeploymentDirect,
		APIKey:     "sk-test",
		BaseURL:    server.URL,
		Timeout:    50 * time.Millisecond,
	})
	require.NoError(t, err)

	_, err = client.Send(context.Background(), simpleRequest())
	assert.Error(t, err)
}

func TestChatResponseHelpers(t *testing.T) {
	var resp ChatResponse
	require.NoError(t, json.Unmarshal([]byte(`{"choices":[]}`), &resp))
	assert.Nil(t, resp.FirstMessage())
	assert.False(t, resp.IsFunctionCall())

	var nilResp *ChatResponse
	assert.Nil(t, nilResp.FirstMessage())
	assert.False(t, nilResp.IsSuccess())
}
