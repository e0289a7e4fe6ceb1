package eventproc

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const (
	testID     = "f467e03c-abab-4c2f-b4cf-4871fd349c6e"
	testFlowID = "cb745ef4-863b-41c4-99c7-325fe2b2b7f8"
)

// requestFields returns the fields of a valid request. Tests mutate the map
// to produce malformed input.
func requestFields(name string, version any) map[string]any {
	return map[string]any{
		"name":     name,
		"version":  version,
		"id":       testID,
		"flowId":   testFlowID,
		"payload":  map[string]any{},
		"identity": map[string]any{},
		"auth":     map[string]any{},
		"metadata": map[string]any{},
	}
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}

func rawRequest(t *testing.T, name string, version uint16) []byte {
	t.Helper()
	return mustJSON(t, requestFields(name, version))
}

type DecodeSuite struct {
	suite.Suite
}

func TestDecodeSuite(t *testing.T) {
	suite.Run(t, new(DecodeSuite))
}

func (s *DecodeSuite) TestDecodesAllFields() {
	raw := []byte(`{
		"name": "order:create",
		"version": 3,
		"id": "f467e03c-abab-4c2f-b4cf-4871fd349c6e",
		"flowId": "cb745ef4-863b-41c4-99c7-325fe2b2b7f8",
		"payload": {"sku":"A-1"},
		"identity": {"user":"u-1"},
		"auth": {"token":"t"},
		"metadata": {"trace":"x"}
	}`)

	e, err := Decode(raw)
	s.Require().NoError(err)

	s.Assert().Equal("order:create", e.Name)
	s.Assert().Equal(uint16(3), e.Version)
	s.Assert().Equal(uuid.MustParse(testID), e.ID)
	s.Assert().Equal(uuid.MustParse(testFlowID), e.FlowID)
	s.Assert().JSONEq(`{"sku":"A-1"}`, string(e.Payload))
	s.Assert().JSONEq(`{"user":"u-1"}`, string(e.Identity))
	s.Assert().JSONEq(`{"token":"t"}`, string(e.Auth))
	s.Assert().JSONEq(`{"trace":"x"}`, string(e.Metadata))
}

func (s *DecodeSuite) TestOpaqueFieldsAcceptAnyValue() {
	fields := requestFields("event:test", 1)
	fields["payload"] = "ok"
	fields["identity"] = nil
	fields["auth"] = []int{1, 2}
	fields["metadata"] = 42

	e, err := Decode(mustJSON(s.T(), fields))
	s.Require().NoError(err)
	s.Assert().Equal(`"ok"`, string(e.Payload))
	s.Assert().Equal(`[1,2]`, string(e.Auth))
	s.Assert().Equal(`42`, string(e.Metadata))
}

func (s *DecodeSuite) TestMissingFields() {
	for _, field := range []string{"name", "version", "id", "flowId", "payload", "identity", "auth", "metadata"} {
		s.Run(field, func() {
			fields := requestFields("event:test", 1)
			delete(fields, field)

			_, err := Decode(mustJSON(s.T(), fields))

			var derr *DecodeError
			s.Require().ErrorAs(err, &derr)
			s.Assert().ErrorIs(err, ErrMissingField)
			s.Assert().Contains(err.Error(), field)
		})
	}
}

func (s *DecodeSuite) TestWrongFieldTypes() {
	tests := map[string]struct {
		field string
		value any
	}{
		"numeric name":      {"name", 7},
		"null name":         {"name", nil},
		"string version":    {"version", "1"},
		"null version":      {"version", nil},
		"numeric id":        {"id", 1},
		"object flowId":     {"flowId", map[string]any{}},
		"negative version":  {"version", -1},
		"oversized version": {"version", 70000},
		"fractional":        {"version", 1.5},
		"malformed id":      {"id", "not-a-uuid"},
		"malformed flowId":  {"flowId", "cb745ef4"},
	}

	for name, tt := range tests {
		s.Run(name, func() {
			fields := requestFields("event:test", 1)
			fields[tt.field] = tt.value

			_, err := Decode(mustJSON(s.T(), fields))

			var derr *DecodeError
			s.Assert().ErrorAs(err, &derr)
		})
	}
}

func (s *DecodeSuite) TestKeysMatchExactly() {
	valid := `"version":1,"id":"f467e03c-abab-4c2f-b4cf-4871fd349c6e","flowId":"cb745ef4-863b-41c4-99c7-325fe2b2b7f8","payload":{},"identity":{},"auth":{},"metadata":{}`

	s.Run("case variant key is ignored", func() {
		e, err := Decode([]byte(`{"name":"ping","NAME":"admin:delete",` + valid + `}`))
		s.Require().NoError(err)
		s.Assert().Equal("ping", e.Name)
	})

	s.Run("case variant key first is ignored", func() {
		e, err := Decode([]byte(`{"Name":"admin:delete","name":"ping",` + valid + `}`))
		s.Require().NoError(err)
		s.Assert().Equal("ping", e.Name)
	})

	s.Run("unknown lowercase flowid is ignored", func() {
		e, err := Decode([]byte(`{"name":"ping","flowid":"not-a-uuid",` + valid + `}`))
		s.Require().NoError(err)
		s.Assert().Equal(uuid.MustParse(testFlowID), e.FlowID)
	})

	s.Run("duplicate key is rejected", func() {
		_, err := Decode([]byte(`{"name":"ping","name":"other",` + valid + `}`))

		var derr *DecodeError
		s.Require().ErrorAs(err, &derr)
		s.Assert().ErrorIs(err, ErrDuplicateField)
		s.Assert().Contains(err.Error(), "`name`")
	})

	s.Run("duplicate unknown key is ignored", func() {
		_, err := Decode([]byte(`{"name":"ping","extra":1,"extra":2,` + valid + `}`))
		s.Assert().NoError(err)
	})
}

func (s *DecodeSuite) TestVersionBounds() {
	for raw, want := range map[string]uint16{"0": 0, "65535": 65535} {
		s.Run(raw, func() {
			fields := requestFields("event:test", json.RawMessage(raw))
			e, err := Decode(mustJSON(s.T(), fields))
			s.Require().NoError(err)
			s.Assert().Equal(want, e.Version)
		})
	}

	for _, raw := range []string{"65536", "1e2", "1.0", "-0"} {
		s.Run(raw, func() {
			fields := requestFields("event:test", json.RawMessage(raw))
			_, err := Decode(mustJSON(s.T(), fields))
			s.Assert().ErrorIs(err, ErrFieldType)
		})
	}
}

func (s *DecodeSuite) TestMalformedInput() {
	for name, raw := range map[string]string{
		"empty":     ``,
		"not json":  `name=order:create`,
		"truncated": `{"name": "order:create", "version": 1`,
		"array":     `[{"name": "order:create"}]`,
		"string":    `"order:create"`,
		"null":      `null`,
		"trailing":  `{} {}`,
	} {
		s.Run(name, func() {
			s.Assert().NotPanics(func() {
				_, err := Decode([]byte(raw))
				var derr *DecodeError
				s.Assert().ErrorAs(err, &derr)
			})
		})
	}
}

func (s *DecodeSuite) TestInvalidJSONIsIdentifiable() {
	_, err := Decode([]byte(`{nope`))
	s.Assert().True(errors.Is(err, ErrInvalidJSON))
}

func TestRespond(t *testing.T) {
	req, err := Decode(rawRequest(t, "event:test", 1))
	require.NoError(t, err)

	t.Run("builds success response", func(t *testing.T) {
		res, err := Respond(req, "ok")
		require.NoError(t, err)

		assert.Equal(t, "event:test:response", res.Name)
		assert.Equal(t, uint16(1), res.Version)
		assert.Equal(t, req.ID, res.ID)
		assert.Equal(t, req.FlowID, res.FlowID)
		assert.Equal(t, `"ok"`, string(res.Payload))
		assert.Equal(t, `{}`, string(res.Identity))
		assert.Equal(t, `{}`, string(res.Auth))
		assert.Equal(t, `{}`, string(res.Metadata))
		assert.True(t, res.IsSuccess())
	})

	t.Run("marshals structured payload", func(t *testing.T) {
		res, err := Respond(req, map[string]int{"count": 2})
		require.NoError(t, err)
		assert.JSONEq(t, `{"count":2}`, string(res.Payload))
	})

	t.Run("uses raw message as is", func(t *testing.T) {
		res, err := Respond(req, json.RawMessage(`{"a":[1,2]}`))
		require.NoError(t, err)
		assert.Equal(t, `{"a":[1,2]}`, string(res.Payload))
	})

	t.Run("nil payload is null", func(t *testing.T) {
		res, err := Respond(req, nil)
		require.NoError(t, err)
		assert.Equal(t, `null`, string(res.Payload))
	})

	t.Run("fails on unmarshalable payload", func(t *testing.T) {
		_, err := Respond(req, make(chan int))
		assert.Error(t, err)
	})

	t.Run("does not share side-channel buffers", func(t *testing.T) {
		a, _ := Respond(req, 1)
		b, _ := Respond(req, 2)
		a.Identity[0] = '['
		assert.Equal(t, `{}`, string(b.Identity))
	})
}

func TestSplitName(t *testing.T) {
	tests := map[string]struct {
		name   string
		event  string
		suffix string
	}{
		"success":             {"order:create:response", "order:create", "response"},
		"error tag":           {"order:create:forbidden", "order:create", "forbidden"},
		"colons in name":      {"a:b:c:notFound", "a:b:c", "notFound"},
		"no colon":            {"badProtocol", "", "badProtocol"},
		"trailing colon":      {"order:", "order", ""},
		"empty":               {"", "", ""},
		"only colon":          {":", "", ""},
		"unknown tag":         {"x:quota exceeded", "x", "quota exceeded"},
		"response is not end": {"a:response:b", "a:response", "b"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			event, suffix := SplitName(tt.name)
			assert.Equal(t, tt.event, event)
			assert.Equal(t, tt.suffix, suffix)
		})
	}
}

func TestNaming(t *testing.T) {
	assert.Equal(t, "order:create:response", ResponseName("order:create"))
	assert.Equal(t, "order:create:forbidden", ErrorName("order:create", "forbidden"))

	name := ErrorName("a:b:c", "notFound")
	assert.Equal(t, "a:b:c:notFound", name)

	event, tag := SplitName(name)
	assert.Equal(t, "a:b:c", event)
	assert.Equal(t, "notFound", tag)
}

func TestEvent_IsSuccess(t *testing.T) {
	tests := map[string]bool{
		"order:create:response":  true,
		"a:b:response":           true,
		":response":              true,
		"response":               false,
		"order:create:forbidden": false,
		"order:create:responses": false,
		"badProtocol":            false,
		"eventNotFound":          false,
	}

	for name, want := range tests {
		t.Run(name, func(t *testing.T) {
			e := Event{Name: name}
			assert.Equal(t, want, e.IsSuccess())
			assert.Equal(t, !want, e.IsError())
		})
	}
}

func TestExtractError(t *testing.T) {
	req, err := Decode(rawRequest(t, "a:b:c", 2))
	require.NoError(t, err)

	t.Run("rebuilds well-known error", func(t *testing.T) {
		res := ErrorFor(req, NotFound("ORDER_NOT_FOUND", map[string]string{"id": "42"}))

		e := ExtractError(res)
		assert.Equal(t, KindNotFound, e.Kind())
		assert.Equal(t, "notFound", e.Tag())
		assert.Equal(t, "ORDER_NOT_FOUND", e.Code())

		params, ok := e.Detail().Parameters.(json.RawMessage)
		require.True(t, ok)
		assert.JSONEq(t, `{"id":"42"}`, string(params))
	})

	t.Run("rebuilds unknown error", func(t *testing.T) {
		res := ErrorFor(req, NewError("quotaExceeded", ErrorDetail{Code: "MONTHLY"}))

		e := ExtractError(res)
		assert.Equal(t, KindUnknown, e.Kind())
		assert.Equal(t, "quotaExceeded", e.Tag())
		assert.Equal(t, "MONTHLY", e.Code())
	})

	t.Run("whole name is tag without colon", func(t *testing.T) {
		res := BadProtocol(errors.New("boom"))

		e := ExtractError(res)
		assert.Equal(t, "badProtocol", e.Tag())
		assert.Equal(t, CodeInvalidProtocol, e.Code())
	})

	t.Run("tolerates payload without code", func(t *testing.T) {
		e := ExtractError(Event{Name: "x:forbidden", Payload: json.RawMessage(`"nope"`)})
		assert.Equal(t, KindForbidden, e.Kind())
		assert.Empty(t, e.Code())
		assert.Nil(t, e.Detail().Parameters)
	})

	t.Run("panics on success response", func(t *testing.T) {
		res, err := Respond(req, "ok")
		require.NoError(t, err)

		assert.PanicsWithError(t, errSuccessEnvelope.Error(), func() {
			ExtractError(res)
		})
	})
}

func TestEvent_MarshalJSON(t *testing.T) {
	req, err := Decode(rawRequest(t, "event:test", 1))
	require.NoError(t, err)
	res, err := Respond(req, "ok")
	require.NoError(t, err)

	out, err := json.Marshal(res)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"name": "event:test:response",
		"version": 1,
		"id": "f467e03c-abab-4c2f-b4cf-4871fd349c6e",
		"flowId": "cb745ef4-863b-41c4-99c7-325fe2b2b7f8",
		"payload": "ok",
		"identity": {},
		"auth": {},
		"metadata": {}
	}`, string(out))

	back, err := Decode(out)
	require.NoError(t, err)
	assert.Equal(t, res.Name, back.Name)
}
