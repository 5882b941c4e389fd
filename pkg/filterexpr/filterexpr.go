// Package filterexpr binds CEL filter expressions and order_by clauses from
// list requests onto typed query parameter structs. Only whitelisted fields
// and operators pass; everything else is rejected before any SQL is built.
package filterexpr

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/google/cel-go/cel"
	exprpb "google.golang.org/genproto/googleapis/api/expr/v1alpha1"
)

// Input is any request carrying raw filter and order_by strings.
type Input interface {
	GetFilter() string
	GetOrderBy() string
}

// Kind describes the literal type a filter field accepts.
type Kind string

const (
	KindString    Kind = "string"
	KindNumber    Kind = "number"
	KindTimestamp Kind = "timestamp"
)

// Op is a supported comparison operator.
type Op string

const (
	OpEQ  Op = "=="
	OpGTE Op = ">="
	OpLTE Op = "<="
	OpSW  Op = "startsWith"
	OpIN  Op = "in"
)

// Field whitelists one filterable field: its literal kind and, per allowed
// operator, the destination field name on the binding struct.
type Field struct {
	Kind Kind
	Ops  map[Op]string
}

// OrderKey maps one order_by key to a SQL expression.
type OrderKey struct {
	Expr string
}

// Ordering describes ordering defaults and whitelisted keys. The fallback key
// is appended as a tiebreaker so result order stays deterministic.
type Ordering struct {
	Default     string
	DefaultDesc bool
	Fallback    string
	Keys        map[string]OrderKey
}

// Schema aggregates filter and order rules for one listable resource.
type Schema struct {
	Filter map[string]Field
	Order  Ordering
}

var timeType = reflect.TypeOf(time.Time{})

// Bind parses the request's filter and order_by and writes the results into
// the binding struct. Filter predicates assign the whitelisted destination
// fields; ordering assigns PrimaryKey/PrimaryDesc/SecondaryKey/SecondaryDesc.
func Bind[I Input, B any](input I, binding *B, schema Schema) error {
	if binding == nil {
		return errors.New("binding must not be nil")
	}
	dest := reflect.ValueOf(binding).Elem()
	if dest.Kind() != reflect.Struct {
		return errors.New("binding must point to a struct")
	}

	if err := bindFilter(dest, input.GetFilter(), schema.Filter); err != nil {
		return fmt.Errorf("filter: %w", err)
	}
	if err := bindOrder(dest, input.GetOrderBy(), schema.Order); err != nil {
		return fmt.Errorf("order_by: %w", err)
	}
	return nil
}

func bindFilter(dest reflect.Value, filter string, fields map[string]Field) error {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		return nil
	}
	if len(fields) == 0 {
		return errors.New("no filterable fields defined")
	}

	env, err := buildEnv(fields)
	if err != nil {
		return err
	}
	ast, issues := env.Parse(filter)
	if issues != nil && issues.Err() != nil {
		return fmt.Errorf("invalid expression: %w", issues.Err())
	}
	parsed, err := cel.AstToParsedExpr(ast)
	if err != nil {
		return fmt.Errorf("convert AST: %w", err)
	}

	conjuncts, err := splitAnd(parsed.GetExpr())
	if err != nil {
		return err
	}

	for _, expr := range conjuncts {
		pred, err := parsePredicate(expr)
		if err != nil {
			return err
		}
		rule, ok := fields[pred.field]
		if !ok {
			return fmt.Errorf("field %q is not allowed", pred.field)
		}
		target, ok := rule.Ops[pred.op]
		if !ok {
			return fmt.Errorf("operator %q is not allowed for field %q", string(pred.op), pred.field)
		}
		if err := checkLiteral(rule.Kind, pred.op, pred.value); err != nil {
			return fmt.Errorf("field %q: %w", pred.field, err)
		}
		if err := assign(dest, target, pred.value); err != nil {
			return fmt.Errorf("field %q: %w", pred.field, err)
		}
	}
	return nil
}

func buildEnv(fields map[string]Field) (*cel.Env, error) {
	opts := make([]cel.EnvOption, 0, len(fields)+1)
	for name, rule := range fields {
		var celType *cel.Type
		switch rule.Kind {
		case KindString:
			celType = cel.StringType
		case KindNumber:
			celType = cel.DoubleType
		case KindTimestamp:
			celType = cel.TimestampType
		default:
			return nil, fmt.Errorf("field %q: unsupported kind %s", name, rule.Kind)
		}
		opts = append(opts, cel.Variable(name, celType))
	}
	opts = append(opts, cel.CrossTypeNumericComparisons(true))
	return cel.NewEnv(opts...)
}

// splitAnd flattens nested AND chains; any other logical operator is rejected.
func splitAnd(expr *exprpb.Expr) ([]*exprpb.Expr, error) {
	if expr == nil {
		return nil, errors.New("empty expression")
	}
	call := expr.GetCallExpr()
	if call == nil {
		return []*exprpb.Expr{expr}, nil
	}
	switch call.Function {
	case "_&&_":
		var out []*exprpb.Expr
		for _, arg := range call.Args {
			sub, err := splitAnd(arg)
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)
		}
		return out, nil
	case "_||_", "_?_:_", "!_":
		return nil, fmt.Errorf("operator %q is not supported; only AND is allowed", call.Function)
	default:
		return []*exprpb.Expr{expr}, nil
	}
}

type predicate struct {
	field string
	op    Op
	value any
}

func parsePredicate(expr *exprpb.Expr) (predicate, error) {
	call := expr.GetCallExpr()
	if call == nil {
		return predicate{}, errors.New("expected a comparison")
	}

	switch call.Function {
	case "_==_":
		return parseBinary(call, OpEQ)
	case "_>=_":
		return parseBinary(call, OpGTE)
	case "_<=_":
		return parseBinary(call, OpLTE)
	case "_in_", "@in":
		return parseBinary(call, OpIN)
	case "startsWith":
		return parseStartsWith(call)
	default:
		return predicate{}, fmt.Errorf("function %q is not supported", call.Function)
	}
}

func parseBinary(call *exprpb.Expr_Call, op Op) (predicate, error) {
	if call.Target != nil || len(call.Args) != 2 {
		return predicate{}, fmt.Errorf("operator %q expects two operands", string(op))
	}
	field, err := identName(call.Args[0])
	if err != nil {
		return predicate{}, err
	}
	value, err := literal(call.Args[1])
	if err != nil {
		return predicate{}, err
	}
	return predicate{field: field, op: op, value: value}, nil
}

func parseStartsWith(call *exprpb.Expr_Call) (predicate, error) {
	fieldExpr, valueExpr := call.Target, (*exprpb.Expr)(nil)
	if call.Target != nil && len(call.Args) == 1 {
		valueExpr = call.Args[0]
	} else if call.Target == nil && len(call.Args) == 2 {
		fieldExpr, valueExpr = call.Args[0], call.Args[1]
	} else {
		return predicate{}, errors.New("startsWith expects a receiver and one argument")
	}

	field, err := identName(fieldExpr)
	if err != nil {
		return predicate{}, err
	}
	value, err := literal(valueExpr)
	if err != nil {
		return predicate{}, err
	}
	if _, ok := value.(string); !ok {
		return predicate{}, errors.New("startsWith requires a string literal")
	}
	return predicate{field: field, op: OpSW, value: value}, nil
}

func identName(expr *exprpb.Expr) (string, error) {
	ident := expr.GetIdentExpr()
	if ident == nil {
		return "", errors.New("left-hand side must be a field identifier")
	}
	return ident.GetName(), nil
}

func literal(expr *exprpb.Expr) (any, error) {
	if constant := expr.GetConstExpr(); constant != nil {
		switch constant.ConstantKind.(type) {
		case *exprpb.Constant_StringValue:
			return constant.GetStringValue(), nil
		case *exprpb.Constant_Int64Value:
			return float64(constant.GetInt64Value()), nil
		case *exprpb.Constant_Uint64Value:
			return float64(constant.GetUint64Value()), nil
		case *exprpb.Constant_DoubleValue:
			return constant.GetDoubleValue(), nil
		default:
			return nil, fmt.Errorf("literal type %T is not supported", constant.ConstantKind)
		}
	}

	if list := expr.GetListExpr(); list != nil {
		values := make([]string, len(list.GetElements()))
		for i, elem := range list.GetElements() {
			val, err := literal(elem)
			if err != nil {
				return nil, fmt.Errorf("list element %d: %w", i, err)
			}
			str, ok := val.(string)
			if !ok {
				return nil, errors.New("list elements must be strings")
			}
			values[i] = str
		}
		return values, nil
	}

	if call := expr.GetCallExpr(); call != nil && call.Function == "timestamp" {
		if call.Target != nil || len(call.Args) != 1 {
			return nil, errors.New("timestamp() expects a single string argument")
		}
		arg := call.Args[0].GetConstExpr()
		if arg == nil {
			return nil, errors.New("timestamp() argument must be a string literal")
		}
		t, err := time.Parse(time.RFC3339, arg.GetStringValue())
		if err != nil {
			return nil, fmt.Errorf("timestamp %q is not RFC3339", arg.GetStringValue())
		}
		return t, nil
	}

	return nil, errors.New("right-hand side must be a literal, string list, or timestamp()")
}

func checkLiteral(kind Kind, op Op, value any) error {
	if op == OpIN {
		list, ok := value.([]string)
		if !ok || len(list) == 0 {
			return errors.New("in expects a non-empty string list")
		}
		return nil
	}
	switch kind {
	case KindString:
		if _, ok := value.(string); !ok {
			return errors.New("expected string literal")
		}
	case KindNumber:
		if _, ok := value.(float64); !ok {
			return errors.New("expected numeric literal")
		}
	case KindTimestamp:
		if _, ok := value.(time.Time); !ok {
			return errors.New("expected timestamp literal")
		}
	}
	return nil
}

func assign(dest reflect.Value, name string, value any) error {
	field := dest.FieldByName(name)
	if !field.IsValid() || !field.CanSet() {
		return fmt.Errorf("binding struct %s has no settable field %q", dest.Type(), name)
	}
	if field.Kind() == reflect.Ptr {
		if field.IsNil() {
			field.Set(reflect.New(field.Type().Elem()))
		}
		field = field.Elem()
	}

	switch v := value.(type) {
	case string:
		if field.Kind() != reflect.String {
			return fmt.Errorf("destination %q is not a string", name)
		}
		field.SetString(v)
	case []string:
		if field.Kind() != reflect.Slice || field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("destination %q is not a string slice", name)
		}
		clone := make([]string, len(v))
		copy(clone, v)
		field.Set(reflect.ValueOf(clone))
	case float64:
		return assignNumber(field, name, v)
	case time.Time:
		if field.Type() != timeType {
			return fmt.Errorf("destination %q is not a time.Time", name)
		}
		field.Set(reflect.ValueOf(v))
	default:
		return fmt.Errorf("unsupported literal type %T", value)
	}
	return nil
}

func assignNumber(field reflect.Value, name string, value float64) error {
	switch field.Kind() {
	case reflect.Float32, reflect.Float64:
		field.SetFloat(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if math.Trunc(value) != value {
			return fmt.Errorf("destination %q requires an integer, got %v", name, value)
		}
		field.SetInt(int64(value))
	default:
		return fmt.Errorf("destination %q is not numeric", name)
	}
	return nil
}
