package docset

import "github.com/dshills/dashdocs-mcp/pkg/types"

// typeAliases maps raw docset type strings to canonical labels. Strings not
// listed here are already canonical or are passed through unchanged.
var typeAliases = map[string]types.SymbolType{
	// Attribute
	"Package Attributes":          types.TypeAttribute,
	"Private Attributes":          types.TypeAttribute,
	"Protected Attributes":        types.TypeAttribute,
	"Public Attributes":           types.TypeAttribute,
	"Static Package Attributes":   types.TypeAttribute,
	"Static Private Attributes":   types.TypeAttribute,
	"Static Protected Attributes": types.TypeAttribute,
	"Static Public Attributes":    types.TypeAttribute,
	"XML Attributes":              types.TypeAttribute,
	// Binding
	"binding": types.TypeBinding,
	// Category
	"cat":    types.TypeCategory,
	"Groups": types.TypeCategory,
	"Pages":  types.TypeCategory,
	// Class
	"cl":             types.TypeClass,
	"specialization": types.TypeClass,
	"tmplt":          types.TypeClass,
	// Constant
	"data":          types.TypeConstant,
	"econst":        types.TypeConstant,
	"enumdata":      types.TypeConstant,
	"enumelt":       types.TypeConstant,
	"clconst":       types.TypeConstant,
	"structdata":    types.TypeConstant,
	"writerid":      types.TypeConstant,
	"Notifications": types.TypeConstant,
	// Constructor
	"structctr":           types.TypeConstructor,
	"Public Constructors": types.TypeConstructor,
	// Enumeration
	"enum":         types.TypeEnumeration,
	"Enum":         types.TypeEnumeration,
	"Enumerations": types.TypeEnumeration,
	// Event
	"event":            types.TypeEvent,
	"Public Events":    types.TypeEvent,
	"Inherited Events": types.TypeEvent,
	"Private Events":   types.TypeEvent,
	// Field
	"Data Fields": types.TypeField,
	// Function
	"dcop":                              types.TypeFunction,
	"func":                              types.TypeFunction,
	"ffunc":                             types.TypeFunction,
	"signal":                            types.TypeFunction,
	"slot":                              types.TypeFunction,
	"grammar":                           types.TypeFunction,
	"Function Prototypes":               types.TypeFunction,
	"Functions/Subroutines":             types.TypeFunction,
	"Members":                           types.TypeFunction,
	"Package Functions":                 types.TypeFunction,
	"Private Member Functions":          types.TypeFunction,
	"Private Slots":                     types.TypeFunction,
	"Protected Member Functions":        types.TypeFunction,
	"Protected Slots":                   types.TypeFunction,
	"Public Member Functions":           types.TypeFunction,
	"Public Slots":                      types.TypeFunction,
	"Signals":                           types.TypeFunction,
	"Static Package Functions":          types.TypeFunction,
	"Static Private Member Functions":   types.TypeFunction,
	"Static Protected Member Functions": types.TypeFunction,
	"Static Public Member Functions":    types.TypeFunction,
	// Guide
	"doc": types.TypeGuide,
	// Namespace
	"ns": types.TypeNamespace,
	// Macro
	"macro": types.TypeMacro,
	// Method
	"clm":               types.TypeMethod,
	"enumcm":            types.TypeMethod,
	"enumctr":           types.TypeMethod,
	"enumm":             types.TypeMethod,
	"intfctr":           types.TypeMethod,
	"intfcm":            types.TypeMethod,
	"intfm":             types.TypeMethod,
	"intfsub":           types.TypeMethod,
	"instsub":           types.TypeMethod,
	"instctr":           types.TypeMethod,
	"instm":             types.TypeMethod,
	"structcm":          types.TypeMethod,
	"structm":           types.TypeMethod,
	"structsub":         types.TypeMethod,
	"Class Methods":     types.TypeMethod,
	"Inherited Methods": types.TypeMethod,
	"Instance Methods":  types.TypeMethod,
	"Private Methods":   types.TypeMethod,
	"Protected Methods": types.TypeMethod,
	"Public Methods":    types.TypeMethod,
	// Operator
	"intfopfunc": types.TypeOperator,
	"opfunc":     types.TypeOperator,
	// Property
	"enump":                types.TypeProperty,
	"intfdata":             types.TypeProperty,
	"intfp":                types.TypeProperty,
	"instp":                types.TypeProperty,
	"structp":              types.TypeProperty,
	"Inherited Properties": types.TypeProperty,
	"Private Properties":   types.TypeProperty,
	"Protected Properties": types.TypeProperty,
	"Public Properties":    types.TypeProperty,
	// Protocol
	"intf": types.TypeProtocol,
	// Structure
	"_Struct":  types.TypeStructure,
	"_Structs": types.TypeStructure,
	"struct":   types.TypeStructure,
	// The first letter is a Cyrillic "С"; some docsets ship it that way.
	"Сontrol Structure": types.TypeStructure,
	"Data Structures":   types.TypeStructure,
	"Struct":            types.TypeStructure,
	// Type
	"tag":             types.TypeType,
	"tdef":            types.TypeType,
	"Data Types":      types.TypeType,
	"Package Types":   types.TypeType,
	"Private Types":   types.TypeType,
	"Protected Types": types.TypeType,
	"Public Types":    types.TypeType,
	"Typedefs":        types.TypeType,
	// Variable
	"var": types.TypeVariable,
}

// NormalizeType maps a raw docset type string to its canonical label.
func NormalizeType(raw string) types.SymbolType {
	if t, ok := typeAliases[raw]; ok {
		return t
	}
	return raw
}
