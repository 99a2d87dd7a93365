package redis

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strconv"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/incidex/internal/db"
)

// KEYS[1] guard hash, KEYS[2] target hash.
// ARGV: field, expected, value, n, then n (counter, delta) pairs.
// Reply: {-1} guard missing, {0} expected mismatch, {1, counter, value, ...} swapped.
const swapFieldSource = `
if redis.call('EXISTS', KEYS[1]) == 0 then
  return {-1}
end
local cur = redis.call('HGET', KEYS[2], ARGV[1]) or ''
if cur ~= ARGV[2] then
  return {0}
end
if ARGV[3] == '' then
  redis.call('HDEL', KEYS[2], ARGV[1])
else
  redis.call('HSET', KEYS[2], ARGV[1], ARGV[3])
end
local out = {1}
local n = tonumber(ARGV[4])
for i = 0, n - 1 do
  local f = ARGV[5 + i * 2]
  local v = redis.call('HINCRBY', KEYS[1], f, tonumber(ARGV[6 + i * 2]))
  out[#out + 1] = f
  out[#out + 1] = v
end
return out
`

// KEYS[1] hash.
// ARGV: n, then n (field, expected) pairs, then (field, value) pairs to write.
// Reply: -1 key missing, 0 mismatch, 1 written.
const setFieldsSource = `
if redis.call('EXISTS', KEYS[1]) == 0 then
  return -1
end
local n = tonumber(ARGV[1])
for i = 0, n - 1 do
  local cur = redis.call('HGET', KEYS[1], ARGV[2 + i * 2]) or ''
  if cur ~= ARGV[3 + i * 2] then
    return 0
  end
end
for i = 2 + n * 2, #ARGV, 2 do
  redis.call('HSET', KEYS[1], ARGV[i], ARGV[i + 1])
end
return 1
`

var (
	swapFieldScript = rueidis.NewLuaScript(swapFieldSource)
	setFieldsScript = rueidis.NewLuaScript(setFieldsSource)
)

// CompareAndSwapField runs the guarded swap and counter increments as one script.
func (s *Store) CompareAndSwapField(ctx context.Context, fs *db.FieldSwap) (*db.SwapResult, error) {
	if fs.Guard == "" || fs.Key == "" || fs.Field == "" {
		return nil, fmt.Errorf("guard, key and field are required")
	}

	counters := slices.Sorted(maps.Keys(fs.Increments))
	args := make([]string, 0, 4+len(counters)*2)
	args = append(args, fs.Field, fs.Expected, fs.Value, strconv.Itoa(len(counters)))
	for _, c := range counters {
		args = append(args, c, strconv.FormatInt(fs.Increments[c], 10))
	}

	raw, err := swapFieldScript.Exec(ctx, s.client, []string{fs.Guard, fs.Key}, args).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpEval, Err: err}
	}
	return parseSwapReply(raw)
}

func parseSwapReply(raw []rueidis.RedisMessage) (*db.SwapResult, error) {
	if len(raw) == 0 {
		return nil, &db.Error{Op: db.OpEval, Err: db.ErrUnexpectedReplyType}
	}
	status, err := raw[0].AsInt64()
	if err != nil {
		return nil, &db.Error{Op: db.OpEval, Err: fmt.Errorf("parse status: %w", err)}
	}
	switch status {
	case -1:
		return nil, db.ErrKeyNotFound
	case 0:
		return &db.SwapResult{}, nil
	}

	res := &db.SwapResult{Swapped: true, Counters: make(map[string]int64, (len(raw)-1)/2)}
	for i := 1; i+1 < len(raw); i += 2 {
		name, err := raw[i].ToString()
		if err != nil {
			return nil, &db.Error{Op: db.OpEval, Err: fmt.Errorf("parse counter name: %w", err)}
		}
		v, err := raw[i+1].AsInt64()
		if err != nil {
			return nil, &db.Error{Op: db.OpEval, Err: fmt.Errorf("parse counter %s: %w", name, err)}
		}
		res.Counters[name] = v
	}
	return res, nil
}

// CompareAndSetFields writes next only while every expected field is unchanged.
func (s *Store) CompareAndSetFields(
	ctx context.Context, key string, expected, next map[string]string,
) (bool, error) {
	if key == "" {
		return false, fmt.Errorf("key is required")
	}

	guarded := slices.Sorted(maps.Keys(expected))
	written := slices.Sorted(maps.Keys(next))
	args := make([]string, 0, 1+len(guarded)*2+len(written)*2)
	args = append(args, strconv.Itoa(len(guarded)))
	for _, f := range guarded {
		args = append(args, f, expected[f])
	}
	for _, f := range written {
		args = append(args, f, next[f])
	}

	status, err := setFieldsScript.Exec(ctx, s.client, []string{key}, args).AsInt64()
	if err != nil {
		return false, &db.Error{Op: db.OpEval, Err: err}
	}
	switch status {
	case -1:
		return false, db.ErrKeyNotFound
	case 0:
		return false, nil
	}
	return true, nil
}
