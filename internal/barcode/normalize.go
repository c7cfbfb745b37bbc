package barcode

import (
	"fmt"
	"sort"
	"strings"
)

// Vocabulary identifies which detection subsystem produced a type identifier.
type Vocabulary int

const (
	// VocabularyLiveMetadata is the object-type vocabulary of the live camera
	// metadata output.
	VocabularyLiveMetadata Vocabulary = iota + 1
	// VocabularyClassification is the symbology vocabulary of the still-image
	// barcode classifier.
	VocabularyClassification
)

func (v Vocabulary) String() string {
	switch v {
	case VocabularyLiveMetadata:
		return "live-metadata"
	case VocabularyClassification:
		return "classification"
	default:
		return fmt.Sprintf("Vocabulary(%d)", int(v))
	}
}

// ParseVocabulary parses "live-metadata" or "classification" (and a few
// shorthand spellings).
func ParseVocabulary(s string) (Vocabulary, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "live-metadata", "live_metadata", "livemetadata", "live", "metadata":
		return VocabularyLiveMetadata, nil
	case "classification", "still", "still-image":
		return VocabularyClassification, nil
	default:
		return 0, fmt.Errorf("barcode: unknown vocabulary %q", s)
	}
}

// Live-metadata object types.
const (
	LiveEAN8               = "org.gs1.EAN-8"
	LiveEAN13              = "org.gs1.EAN-13"
	LiveUPCE               = "org.gs1.UPC-E"
	LiveCode39             = "org.iso.Code39"
	LiveCode39Mod43        = "org.iso.Code39Mod43"
	LiveCode93             = "com.intermec.Code93"
	LiveCode128            = "org.iso.Code128"
	LivePDF417             = "org.iso.PDF417"
	LiveAztec              = "org.iso.Aztec"
	LiveDataMatrix         = "org.iso.DataMatrix"
	LiveQR                 = "org.iso.QRCode"
	LiveInterleaved2of5    = "org.ansi.Interleaved2of5"
	LiveITF14              = "org.gs1.ITF14"
	LiveCodabar            = "Codabar"
	LiveGS1DataBar         = "org.gs1.GS1DataBar"
	LiveGS1DataBarExpanded = "org.gs1.GS1DataBarExpanded"
	LiveGS1DataBarLimited  = "org.gs1.GS1DataBarLimited"
	LiveMicroQR            = "org.iso.MicroQR"
	LiveMicroPDF417        = "org.iso.MicroPDF417"
)

// Classification symbologies.
const (
	ClassAztec                   = "VNBarcodeSymbologyAztec"
	ClassCodabar                 = "VNBarcodeSymbologyCodabar"
	ClassCode128                 = "VNBarcodeSymbologyCode128"
	ClassCode39                  = "VNBarcodeSymbologyCode39"
	ClassCode39Checksum          = "VNBarcodeSymbologyCode39Checksum"
	ClassCode39FullASCII         = "VNBarcodeSymbologyCode39FullASCII"
	ClassCode39FullASCIIChecksum = "VNBarcodeSymbologyCode39FullASCIIChecksum"
	ClassCode93                  = "VNBarcodeSymbologyCode93"
	ClassCode93i                 = "VNBarcodeSymbologyCode93i"
	ClassDataMatrix              = "VNBarcodeSymbologyDataMatrix"
	ClassEAN8                    = "VNBarcodeSymbologyEAN8"
	ClassEAN13                   = "VNBarcodeSymbologyEAN13"
	ClassGS1DataBar              = "VNBarcodeSymbologyGS1DataBar"
	ClassGS1DataBarExpanded      = "VNBarcodeSymbologyGS1DataBarExpanded"
	ClassGS1DataBarLimited       = "VNBarcodeSymbologyGS1DataBarLimited"
	ClassI2of5                   = "VNBarcodeSymbologyI2of5"
	ClassI2of5Checksum           = "VNBarcodeSymbologyI2of5Checksum"
	ClassITF14                   = "VNBarcodeSymbologyITF14"
	ClassMicroPDF417             = "VNBarcodeSymbologyMicroPDF417"
	ClassMicroQR                 = "VNBarcodeSymbologyMicroQR"
	ClassMSIPlessey              = "VNBarcodeSymbologyMSIPlessey"
	ClassPDF417                  = "VNBarcodeSymbologyPDF417"
	ClassQR                      = "VNBarcodeSymbologyQR"
	ClassUPCE                    = "VNBarcodeSymbologyUPCE"
)

// DefaultType is what any unmapped identifier resolves to.
const DefaultType = TypeCode128

// liveMetadataTypes is one-to-one with the canonical set. Live object types
// without an entry (Code39Mod43, ITF14, the DataBar family, ...) take the
// default.
var liveMetadataTypes = map[string]Type{
	LiveEAN8:       TypeEAN8,
	LiveEAN13:      TypeEAN13,
	LivePDF417:     TypePDF417,
	LiveCode39:     TypeCode39,
	LiveCode93:     TypeCode93,
	LiveUPCE:       TypeUPCE,
	LiveAztec:      TypeAztec,
	LiveDataMatrix: TypeDataMatrix,
	LiveQR:         TypeQR,
	LiveCode128:    TypeCode128,
}

// liveMetadataUnmapped lists the live object types known to exist but
// intentionally left to the default.
var liveMetadataUnmapped = []string{
	LiveCode39Mod43,
	LiveInterleaved2of5,
	LiveITF14,
	LiveCodabar,
	LiveGS1DataBar,
	LiveGS1DataBarExpanded,
	LiveGS1DataBarLimited,
	LiveMicroQR,
	LiveMicroPDF417,
}

// classificationTypes collapses checksum, full-ASCII and micro variants onto
// their parent family.
var classificationTypes = map[string]Type{
	ClassAztec:                   TypeAztec,
	ClassCode128:                 TypeCode128,
	ClassCode39:                  TypeCode39,
	ClassCode39Checksum:          TypeCode39,
	ClassCode39FullASCII:         TypeCode39,
	ClassCode39FullASCIIChecksum: TypeCode39,
	ClassCode93:                  TypeCode93,
	ClassCode93i:                 TypeCode93,
	ClassDataMatrix:              TypeDataMatrix,
	ClassEAN8:                    TypeEAN8,
	ClassEAN13:                   TypeEAN13,
	ClassPDF417:                  TypePDF417,
	ClassMicroPDF417:             TypePDF417,
	ClassQR:                      TypeQR,
	ClassMicroQR:                 TypeQR,
	ClassUPCE:                    TypeUPCE,

	ClassCodabar:            TypeCode128,
	ClassGS1DataBar:         TypeCode128,
	ClassGS1DataBarExpanded: TypeCode128,
	ClassGS1DataBarLimited:  TypeCode128,
	ClassI2of5:              TypeCode128,
	ClassI2of5Checksum:      TypeCode128,
	ClassITF14:              TypeCode128,
	ClassMSIPlessey:         TypeCode128,
}

// Normalize maps a detection type identifier from vocab into a canonical
// type. It never fails: anything it does not recognise is DefaultType.
func Normalize(rawTypeID string, vocab Vocabulary) Type {
	var table map[string]Type
	switch vocab {
	case VocabularyLiveMetadata:
		table = liveMetadataTypes
	case VocabularyClassification:
		table = classificationTypes
	default:
		return DefaultType
	}
	if t, ok := table[rawTypeID]; ok {
		return t
	}
	return DefaultType
}

// KnownIdentifiers returns every identifier of vocab this package knows
// about, sorted.
func KnownIdentifiers(vocab Vocabulary) []string {
	var ids []string
	switch vocab {
	case VocabularyLiveMetadata:
		for id := range liveMetadataTypes {
			ids = append(ids, id)
		}
		ids = append(ids, liveMetadataUnmapped...)
	case VocabularyClassification:
		for id := range classificationTypes {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}
