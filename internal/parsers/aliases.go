package parsers

import (
	"regexp"
	"strings"
)

// Canonical field keys used by the row mappers
const (
	FieldInvoiceNumber = "invoiceNumber"
	FieldCustomerName  = "customerName"
	FieldInvoiceDate   = "invoiceDate"
	FieldDueDate       = "dueDate"
	FieldAmount        = "amount"
	FieldCurrency      = "currency"
	FieldReference     = "reference"

	FieldTransactionDate = "transactionDate"
	FieldDescription     = "description"
	FieldBankID          = "bankId"
)

// Header aliases cover the column names seen across real invoice and
// bank statement exports. Lookups are case-insensitive and ignore
// spaces and punctuation, so "Invoice No." and "invoice_no" both map
// to invoiceNumber.
var invoiceAliases = map[string][]string{
	FieldInvoiceNumber: {"invoicenumber", "invoiceno", "invnumber", "invno", "invoice", "invoiceid", "number", "docnumber"},
	FieldCustomerName:  {"customername", "customer", "client", "clientname", "accountname", "payer", "debtor"},
	FieldInvoiceDate:   {"invoicedate", "date", "billingdate", "issuedate", "docdate"},
	FieldDueDate:       {"duedate", "due", "maturitydate", "paymentdue"},
	FieldAmount:        {"amount", "total", "invoiceamount", "totalamount", "amountdue", "value", "gross"},
	FieldCurrency:      {"currency", "ccy", "cur"},
	FieldReference:     {"reference", "ref", "paymentref", "paymentreference", "narration", "memo"},
}

var bankAliases = map[string][]string{
	FieldTransactionDate: {"transactiondate", "date", "valuedate", "postingdate", "txndate", "txdate"},
	FieldDescription:     {"description", "desc", "narration", "details", "particulars", "transactiondetails", "memo"},
	FieldAmount:          {"amount", "credit", "creditamount", "paidin", "depositamount", "value"},
	FieldCurrency:        {"currency", "ccy", "cur"},
	FieldReference:       {"reference", "ref", "paymentref", "paymentreference", "customerref"},
	FieldBankID:          {"bankid", "transactionid", "txnid", "bankref", "statementid", "id"},
}

// Fields that must map for a file to be usable at all
var (
	requiredInvoiceFields = []string{FieldInvoiceDate, FieldAmount}
	requiredBankFields    = []string{FieldTransactionDate, FieldAmount}
)

var headerNormalizeRe = regexp.MustCompile(`[^a-z0-9]`)

// normalizeHeader lowercases a header and strips everything but
// letters and digits.
func normalizeHeader(header string) string {
	return headerNormalizeRe.ReplaceAllString(strings.ToLower(header), "")
}

// MapHeaders resolves a header row to canonical field keys. Each field
// resolves to the first column whose normalized name appears in the
// field's alias list. Columns already claimed by a field are skipped,
// so a single "date" column cannot serve both invoiceDate and dueDate.
func MapHeaders(headers []string, aliases map[string][]string, fieldOrder []string) map[string]int {
	normalized := make([]string, len(headers))
	for i, header := range headers {
		normalized[i] = normalizeHeader(header)
	}

	mapping := make(map[string]int)
	claimed := make(map[int]bool)

	for _, field := range fieldOrder {
		for _, alias := range aliases[field] {
			found := -1
			for i, header := range normalized {
				if !claimed[i] && header == alias {
					found = i
					break
				}
			}
			if found >= 0 {
				mapping[field] = found
				claimed[found] = true
				break
			}
		}
	}

	return mapping
}

// invoiceFieldOrder fixes alias resolution priority so specific names
// claim their columns before generic ones like "date".
var invoiceFieldOrder = []string{
	FieldInvoiceNumber, FieldDueDate, FieldInvoiceDate, FieldCustomerName,
	FieldAmount, FieldCurrency, FieldReference,
}

var bankFieldOrder = []string{
	FieldBankID, FieldTransactionDate, FieldDescription,
	FieldAmount, FieldCurrency, FieldReference,
}
