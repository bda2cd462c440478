package main

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
)

// Stand-in notification center: grants (or denies, with NOTIFY_DENY set)
// the notification permission and logs every delivered notification.
func main() {
	http.HandleFunc("/permission", func(w http.ResponseWriter, r *http.Request) {
		granted := os.Getenv("NOTIFY_DENY") == ""
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"granted":%t}`, granted)
	})

	http.HandleFunc("/notify", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = r.Body.Close()

		log.Printf("received notification: %s\n", string(body))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	fmt.Println("Notification mock listening on :9090")
	log.Fatal(http.ListenAndServe(":9090", nil))
}
