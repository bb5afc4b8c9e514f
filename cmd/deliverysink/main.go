// deliverysink is a local stand-in for the email/SMS gateway: it accepts the
// delivery POSTs the auth service fires and prints the codes, so the full
// send/verify flow can be exercised without a real provider.
package main

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
)

func main() {
	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Only POST method is accepted", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Error reading request body", http.StatusInternalServerError)
			return
		}
		defer r.Body.Close()

		var data map[string]string
		if err := json.Unmarshal(body, &data); err != nil {
			http.Error(w, "Error parsing JSON", http.StatusBadRequest)
			return
		}

		log.Println("Received delivery:")
		log.Printf("  Identifier: %s", data["identifier"])
		log.Printf("  Code: %s", data["code"])

		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Delivery received!"))
	})

	log.Println("Delivery sink listening on :9090")
	if err := http.ListenAndServe(":9090", nil); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
