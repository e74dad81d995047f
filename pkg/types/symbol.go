package types

import "net/url"

// SymbolType is a canonical symbol type label. Docsets use dozens of raw type
// strings ("clm", "Public Methods", ...) that normalize to these labels.
type SymbolType = string

const (
	TypeAttribute   SymbolType = "Attribute"
	TypeBinding     SymbolType = "Binding"
	TypeCategory    SymbolType = "Category"
	TypeClass       SymbolType = "Class"
	TypeConstant    SymbolType = "Constant"
	TypeConstructor SymbolType = "Constructor"
	TypeEnumeration SymbolType = "Enumeration"
	TypeEvent       SymbolType = "Event"
	TypeField       SymbolType = "Field"
	TypeFunction    SymbolType = "Function"
	TypeGuide       SymbolType = "Guide"
	TypeMacro       SymbolType = "Macro"
	TypeMethod      SymbolType = "Method"
	TypeNamespace   SymbolType = "Namespace"
	TypeOperator    SymbolType = "Operator"
	TypeProperty    SymbolType = "Property"
	TypeProtocol    SymbolType = "Protocol"
	TypeStructure   SymbolType = "Structure"
	TypeType        SymbolType = "Type"
	TypeVariable    SymbolType = "Variable"
)

// Symbol is one entry of a docset's symbol list for a given type.
type Symbol struct {
	Name string
	Type SymbolType
	URL  *url.URL
}
