package ingest

const sampleCSV = `Project Name,Pages,Rate,Work Status,Payment Status,Notes,Accepted Date,Submission Date
Website Redesign,8,150,In Progress,Unpaid,Modern responsive design,2024-01-15,2024-02-15
Annual Report,24,45,Pending,Partially Paid,"Print-ready PDF, two rounds of review",2024-01-20,2024-02-03
Product Brochure,6,60,Completed,Paid,,2024-01-05,2024-01-12
`

const sampleJSON = `[
  {
    "projectName": "Website Redesign",
    "pages": 8,
    "rate": 150,
    "workStatus": "In Progress",
    "paymentStatus": "Unpaid",
    "notes": "Modern responsive design",
    "acceptedDate": "2024-01-15",
    "submissionDate": "2024-02-15"
  },
  {
    "projectName": "Annual Report",
    "pages": 24,
    "rate": 45,
    "workStatus": "Pending",
    "paymentStatus": "Partially Paid",
    "acceptedDate": "2024-01-20"
  }
]
`

// SampleCSV returns an example import file in canonical column naming.
func SampleCSV() string { return sampleCSV }

// SampleJSON returns an example import document in canonical field naming.
func SampleJSON() string { return sampleJSON }
