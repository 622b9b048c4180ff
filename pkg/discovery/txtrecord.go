package discovery

import (
	"fmt"
	"strings"
)

// TXTRecordMap is a map of TXT record key-value pairs.
type TXTRecordMap map[string]string

// EncodeTXT creates TXT records for a presence announcement. Only identity
// metadata goes on the wire; network credentials are never encoded.
func EncodeTXT(info *Info) TXTRecordMap {
	txt := make(TXTRecordMap)

	// Required fields
	txt[TXTKeySerial] = info.Serial

	// Optional fields
	if info.Model != "" {
		txt[TXTKeyModel] = info.Model
	}
	if info.Firmware != "" {
		txt[TXTKeyFirmware] = info.Firmware
	}
	if info.InstanceName != "" {
		txt[TXTKeyDeviceName] = info.InstanceName
	}

	return txt
}

// DecodeTXT parses TXT records from a presence announcement.
func DecodeTXT(txt TXTRecordMap) (*Info, error) {
	info := &Info{}

	// Parse serial (required)
	var ok bool
	info.Serial, ok = txt[TXTKeySerial]
	if !ok || info.Serial == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeySerial)
	}

	// Optional fields
	info.Model = txt[TXTKeyModel]
	info.Firmware = txt[TXTKeyFirmware]
	info.InstanceName = txt[TXTKeyDeviceName]

	return info, nil
}

// TXTRecordsToStrings converts a TXTRecordMap to a slice of "key=value" strings.
// This format is commonly used by mDNS libraries.
func TXTRecordsToStrings(txt TXTRecordMap) []string {
	result := make([]string, 0, len(txt))
	for k, v := range txt {
		result = append(result, fmt.Sprintf("%s=%s", k, v))
	}
	return result
}

// StringsToTXTRecords parses a slice of "key=value" strings into a TXTRecordMap.
func StringsToTXTRecords(strs []string) TXTRecordMap {
	txt := make(TXTRecordMap)
	for _, s := range strs {
		parts := strings.SplitN(s, "=", 2)
		if len(parts) == 2 {
			txt[parts[0]] = parts[1]
		} else if len(parts) == 1 && parts[0] != "" {
			// Key without value (boolean flag)
			txt[parts[0]] = ""
		}
	}
	return txt
}
