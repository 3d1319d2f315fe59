package solana

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ybbus/jsonrpc"
)

func decodeRaw(t *testing.T, s string) interface{} {
	var raw interface{}
	require.NoError(t, json.NewDecoder(bytes.NewBufferString(s)).Decode(&raw))
	return raw
}

func TestParseTransactionError(t *testing.T) {
	e, err := ParseTransactionError(decodeRaw(t, `{"InstructionError":[2,{"Custom":3}]}`))
	require.NoError(t, err)

	assert.Equal(t, TransactionErrorInstructionError, e.ErrorKey())
	require.NotNil(t, e.InstructionError())
	assert.Equal(t, 2, e.InstructionError().Index)
	assert.Equal(t, InstructionErrorCustom, e.InstructionError().ErrorKey())
	require.NotNil(t, e.InstructionError().CustomError())
	assert.Equal(t, CustomError(3), *e.InstructionError().CustomError())

	e, err = ParseTransactionError(decodeRaw(t, `{"InstructionError":[0,"InvalidArgument"]}`))
	require.NoError(t, err)
	assert.Equal(t, InstructionErrorInvalidArgument, e.InstructionError().ErrorKey())

	e, err = ParseTransactionError(decodeRaw(t, `"BlockhashNotFound"`))
	require.NoError(t, err)
	assert.Equal(t, TransactionErrorBlockhashNotFound, e.ErrorKey())
	assert.Nil(t, e.InstructionError())

	e, err = ParseTransactionError(nil)
	assert.NoError(t, err)
	assert.Nil(t, e)
}

func TestParseRPCError(t *testing.T) {
	rpcErr := &jsonrpc.RPCError{
		Code:    -32002,
		Message: "Transaction simulation failed",
		Data: map[string]interface{}{
			"err": decodeRaw(t, `{"InstructionError":[1,{"Custom":6000}]}`),
		},
	}

	e, err := ParseRPCError(rpcErr)
	require.NoError(t, err)
	require.NotNil(t, e.InstructionError())
	assert.Equal(t, 1, e.InstructionError().Index)
	assert.Equal(t, CustomError(6000), *e.InstructionError().CustomError())

	s, err := e.JSONString()
	require.NoError(t, err)
	assert.JSONEq(t, `{"InstructionError":[1,{"Custom":6000}]}`, s)
}

func TestNewTransactionError(t *testing.T) {
	e := NewTransactionError(TransactionErrorDuplicateSignature)
	assert.Equal(t, "DuplicateSignature", e.raw)
	assert.Equal(t, "DuplicateSignature", e.Error())
}

func TestParseJSONNumber(t *testing.T) {
	for i, c := range []interface{}{"1", 1.0, json.Number("1")} {
		v, err := parseJSONNumber(c)
		assert.NoError(t, err)
		assert.Equal(t, 1, v, i)
	}

	_, err := parseJSONNumber(true)
	assert.Error(t, err)
}
