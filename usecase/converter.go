package usecase

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// arraySeparator joins the elements of an array in a single csv cell
const arraySeparator = ";"

// jsonToCsv flattens a JSON array of objects (or a single object) into csv,
// one row per object after a header line of the sorted column names.
// Nested objects become "parent.child" columns, missing keys give empty cells.
func jsonToCsv(jsonDocument []byte) (*bytes.Buffer, error) {
	var jsonObjects []map[string]interface{}
	err := json.Unmarshal(jsonDocument, &jsonObjects)
	if err != nil {
		var singleJsonObject map[string]interface{}
		err2 := json.Unmarshal(jsonDocument, &singleJsonObject)
		if err2 != nil {
			return nil, errors.New("failed to unmarshal input JSON")
		}
		jsonObjects = []map[string]interface{}{singleJsonObject}
	}

	headersMap := make(map[string]struct{})
	for _, jsonObject := range jsonObjects {
		for _, header := range extractHeaders(jsonObject) {
			headersMap[header] = struct{}{}
		}
	}

	headers := make([]string, 0, len(headersMap))
	for header := range headersMap {
		headers = append(headers, header)
	}
	sort.Strings(headers)

	csvBuffer := &bytes.Buffer{}
	if len(headers) == 0 {
		return csvBuffer, nil
	}
	csvWriter := csv.NewWriter(csvBuffer)
	if err := csvWriter.Write(headers); err != nil {
		return nil, err
	}

	row := make([]string, len(headers))
	for _, jsonObject := range jsonObjects {
		if err := writeCsvRow(jsonObject, headers, row, csvWriter); err != nil {
			return nil, err
		}
	}
	csvWriter.Flush()
	return csvBuffer, csvWriter.Error()
}

func extractHeaders(jsonObject map[string]interface{}) []string {
	headers := make([]string, 0, len(jsonObject))
	for key, value := range jsonObject {
		switch v := value.(type) {
		case map[string]interface{}:
			for _, subHeader := range extractHeaders(v) {
				headers = append(headers, fmt.Sprintf("%s.%s", key, subHeader))
			}
		default:
			headers = append(headers, key)
		}
	}
	return headers
}

func writeCsvRow(jsonObject map[string]interface{}, headers []string, row []string, csvWriter *csv.Writer) error {
	for i, header := range headers {
		parts := strings.Split(header, ".")
		value, err := getValue(jsonObject, parts)
		if err != nil {
			return err
		}
		row[i], err = formatCell(value)
		if err != nil {
			return err
		}
	}
	return csvWriter.Write(row)
}

func getValue(jsonObject map[string]interface{}, parts []string) (interface{}, error) {
	value, ok := jsonObject[parts[0]]
	if !ok {
		return nil, nil // Empty cell for missing keys
	}
	if len(parts) == 1 {
		return value, nil
	}
	subObject, ok := value.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("subobject %s not found", parts[0])
	}
	return getValue(subObject, parts[1:])
}

func formatCell(value interface{}) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case []interface{}:
		cells := make([]string, 0, len(v))
		for _, element := range v {
			cell, err := formatCell(element)
			if err != nil {
				return "", err
			}
			cells = append(cells, cell)
		}
		return strings.Join(cells, arraySeparator), nil
	case map[string]interface{}:
		// Objects inside arrays are kept as JSON
		encoded, err := json.Marshal(v)
		return string(encoded), err
	default:
		return fmt.Sprint(v), nil
	}
}
