package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/canal-org/canal/pkg/client"
)

var index = []byte(`<!DOCTYPE html>
<html>
<body>
<h1>SSE Messages</h1>
<div id="result"></div>
<script>
if(typeof(EventSource) !== "undefined") {
  var source = new EventSource("http://localhost:6750/sse?channel=clock");
  source.addEventListener("tick", function(event) {
    document.getElementById("result").innerHTML += event.data + "<br>";
  });
} else {
  document.getElementById("result").innerHTML = "Sorry, your browser does not support server-sent events...";
}
</script>
</body>
</html>
`)

func main() {
	c, err := client.New(client.ClientOptions{URL: "http://127.0.0.1:6750"})
	if err != nil {
		log.Fatalln(err)
	}

	go func() {
		for range time.Tick(2 * time.Second) {
			err := c.Send(context.Background(), &client.Event{
				Channel: "clock",
				Type:    "tick",
				Data:    time.Now().Format(time.RFC3339),
			})
			if err != nil {
				log.Println(err)
			}
		}
	}()

	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(index)
	})

	log.Fatal(http.ListenAndServe(":8080", nil))
}
