// The MIT License (MIT)
//
// # Copyright (c) 2016 xtaci
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package std

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/ucodev/go-sidp/sidp"
)

var statsHeader = []string{"Unix", "Sdev", "Ddev", "Sid", "BytesIn", "BytesOut", "LastRead", "LastWrite"}

// StatsLogger periodically appends per-connection statistics to a CSV file.
// The snapshot callback supplies the connections to sample; path may carry a
// time format in its filename, like: ./stats-20060102.log
func StatsLogger(path string, interval int, snapshot func() []*sidp.Conn) {
	if path == "" || interval == 0 {
		return
	}
	ticker := time.NewTicker(time.Duration(interval) * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			// split path into dirname and filename
			logdir, logfile := filepath.Split(path)
			// only format logfile
			f, err := os.OpenFile(logdir+time.Now().Format(logfile), os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
			if err != nil {
				log.Println(err)
				return
			}
			w := csv.NewWriter(f)
			// write header in empty file
			if stat, err := f.Stat(); err == nil && stat.Size() == 0 {
				if err := w.Write(statsHeader); err != nil {
					log.Println(err)
				}
			}
			now := fmt.Sprint(time.Now().Unix())
			for _, conn := range snapshot() {
				row := []string{
					now,
					fmt.Sprint(conn.Sdev()),
					fmt.Sprint(conn.Ddev()),
					fmt.Sprint(conn.Sid()),
					fmt.Sprint(conn.ReadBytes()),
					fmt.Sprint(conn.WriteBytes()),
					fmt.Sprint(conn.LastRead().Unix()),
					fmt.Sprint(conn.LastWrite().Unix()),
				}
				if err := w.Write(row); err != nil {
					log.Println(err)
				}
			}
			w.Flush()
			f.Close()
		}
	}
}
